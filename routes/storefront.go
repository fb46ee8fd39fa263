package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/cart"
	chatControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/chat"
	imageControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/image"
	orderControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/order"
	paymentControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/payment"
	productControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/product"
	userControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/user"
	"github.com/stickerverse/custom-sticker-shop-sub001/middleware"
)

// SetupCatalogRoutes registers the public browsing endpoints and the chat
// websocket (sockets authenticate in-band, not at upgrade time).
func SetupCatalogRoutes(r *gin.Engine, d Deps) {
	r.GET("/api/products", productControllers.GetProducts(d.DB))
	r.GET("/api/products/:id", productControllers.GetProductByID(d.DB))
	r.GET("/api/categories", productControllers.GetAllCategories(d.DB))

	r.GET("/ws/chat", d.Hub.Handler())
}

// SetupStorefrontRoutes registers all token-protected "/api/*" endpoints.
// Guest tokens pass; operations needing a real account add RequireUser.
func SetupStorefrontRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")
	api.Use(middleware.ValidateToken(d.Blacklist))
	{
		// ──────────────── Profile ────────────────
		api.GET("/user", middleware.RequireUser, userControllers.GetUser(d.DB))
		api.PUT("/user", middleware.RequireUser, userControllers.UpdateUser(d.DB))

		// ──────────────── Shopping Cart (server-synced, account only) ────────────────
		cart := api.Group("/cart")
		cart.Use(middleware.RequireUser)
		{
			cart.GET("", cartControllers.GetCart(d.DB))
			cart.POST("", cartControllers.AddCartItem(d.DB))
			cart.PUT("/:id", cartControllers.UpdateCartItem(d.DB))
			cart.DELETE("/:id", cartControllers.DeleteCartItem(d.DB))
			cart.DELETE("", cartControllers.ClearCart(d.DB))
		}

		// ──────────────── Orders ────────────────
		orders := api.Group("/orders")
		{
			orders.POST("", orderControllers.CreateOrder(d.DB, d.Logger))
			orders.GET("", orderControllers.GetUserOrders(d.DB))
			orders.GET("/:id", orderControllers.GetOrder(d.DB))
			orders.PATCH("/:id/status", orderControllers.UpdateOrderStatus(d.DB))
		}

		// ──────────────── Payment ────────────────
		api.POST("/payment/intent", paymentControllers.CreatePaymentIntent(d.DB, d.Logger))

		// ──────────────── Chat (account only) ────────────────
		conversations := api.Group("/conversations")
		conversations.Use(middleware.RequireUser)
		{
			conversations.GET("", chatControllers.GetConversations(d.DB))
			conversations.POST("", chatControllers.CreateConversation(d.DB))
			conversations.GET("/:id", chatControllers.GetConversation(d.DB))
			conversations.POST("/:id/messages", chatControllers.SendMessage(d.DB, d.Hub))
			conversations.POST("/:id/read", chatControllers.MarkConversationRead(d.DB))
		}

		// ──────────────── Customizer image tooling ────────────────
		api.POST("/image/remove-background", imageControllers.RemoveBackground())
		api.POST("/image/detect-borders", imageControllers.DetectBorders())
	}
}
