package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stickerverse/custom-sticker-shop-sub001/auth"
	marketplaceControllers "github.com/stickerverse/custom-sticker-shop-sub001/controllers/marketplace"
	"github.com/stickerverse/custom-sticker-shop-sub001/ws"
)

// Deps carries everything the route groups wire into their handlers.
type Deps struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Hub       *ws.Hub
	Blacklist auth.TokenBlacklist
	Listings  marketplaceControllers.ListingSource
}

// SetupRoutes is the single entry-point that wires up all route groups.
func SetupRoutes(r *gin.Engine, d Deps) {
	// Public: auth, catalog browsing, websocket.
	SetupAuthRoutes(r, d)
	SetupCatalogRoutes(r, d)

	// Token-protected storefront surface.
	SetupStorefrontRoutes(r, d)

	// API-key-protected admin surface.
	SetupAdminRoutes(r, d)
}
