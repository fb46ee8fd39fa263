package marketplaceControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
)

type ImportInput struct {
	ListingIDs []string `json:"listingIds" binding:"required,min=1"`
}

type ImportItemError struct {
	ProductID string `json:"productId"`
	Error     string `json:"error"`
}

// ImportResult reports a bulk import. Partial failure is a completed
// operation: Success stays true as long as the import ran, and per-item
// failures land in Errors.
type ImportResult struct {
	Success       bool              `json:"success"`
	ImportedCount int               `json:"importedCount"`
	Errors        []ImportItemError `json:"errors"`
}

// GET /admin/marketplace/listings?q=...&limit=...
func BrowseListings(source ListingSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.DefaultQuery("q", "stickers")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

		listings, err := source.Search(c.Request.Context(), query, limit)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, listings)
	}
}

// POST /admin/marketplace/import
func ImportListings(db *gorm.DB, source ListingSource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ImportInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		result := ImportResult{Success: true, Errors: []ImportItemError{}}
		for _, listingID := range input.ListingIDs {
			if err := importOne(c, db, source, listingID); err != nil {
				logger.Warn("listing import failed",
					zap.String("listing_id", listingID),
					zap.Error(err))
				result.Errors = append(result.Errors, ImportItemError{
					ProductID: listingID,
					Error:     err.Error(),
				})
				continue
			}
			result.ImportedCount++
		}

		logger.Info("marketplace import finished",
			zap.Int("imported", result.ImportedCount),
			zap.Int("failed", len(result.Errors)))
		c.JSON(http.StatusOK, result)
	}
}

func importOne(c *gin.Context, db *gorm.DB, source ListingSource, listingID string) error {
	listing, err := source.GetListing(c.Request.Context(), listingID)
	if err != nil {
		return err
	}

	// Re-importing a listing updates the existing product instead of
	// duplicating it.
	var product models.Product
	err = db.Where("ebay_listing_id = ?", listing.ListingID).First(&product).Error
	switch err {
	case nil:
		product.Title = listing.Title
		product.Price = listing.Price
		if listing.ImageURL != "" {
			product.Image = listing.ImageURL
		}
		return db.Save(&product).Error
	case gorm.ErrRecordNotFound:
		product = models.Product{
			Title:         listing.Title,
			Price:         listing.Price,
			Image:         listing.ImageURL,
			EbayListingID: listing.ListingID,
		}
		return db.Create(&product).Error
	default:
		return err
	}
}
