package routes

import (
	"github.com/gin-gonic/gin"

	marketplaceControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/marketplace"
	productControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/product"
	userControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/user"
	"github.com/stickerverse/custom-sticker-shop-sub001/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		// ─────────── User Management ───────────
		adminGroup.GET("/users", userControllers.GetAllUsers(d.DB))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productControllers.CreateProduct(d.DB))
			productAdmin.PUT("/:id", productControllers.UpdateProduct(d.DB))
			productAdmin.DELETE("/:id", productControllers.DeleteProduct(d.DB))
			productAdmin.GET("/export-excel", productControllers.ExportProductsToExcel(d.DB))
		}

		// ─────────── Category Management ───────────
		categoryAdmin := adminGroup.Group("/categories")
		{
			categoryAdmin.POST("", productControllers.CreateCategory(d.DB))
			categoryAdmin.PUT("/:id", productControllers.UpdateCategory(d.DB))
			categoryAdmin.DELETE("/:id", productControllers.DeleteCategory(d.DB))
		}

		// ─────────── Marketplace Import ───────────
		marketplace := adminGroup.Group("/marketplace")
		{
			marketplace.GET("/listings", marketplaceControllers.BrowseListings(d.Listings))
			marketplace.POST("/import", marketplaceControllers.ImportListings(d.DB, d.Listings, d.Logger))
		}
	}
}
