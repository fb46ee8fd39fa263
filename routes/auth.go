package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/stickerverse/custom-sticker-shop-sub001/auth"
	"github.com/stickerverse/custom-sticker-shop-sub001/middleware"
)

// SetupAuthRoutes registers all "/api/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", auth.Register(d.DB))
		authGroup.POST("/login", auth.Login(d.DB))
		authGroup.POST("/logout", auth.Logout(d.Blacklist))
		authGroup.POST("/guest", auth.CreateGuestUser(d.DB))

		authGroup.GET("/me", middleware.ValidateToken(d.Blacklist), auth.Me(d.DB))
	}
}
