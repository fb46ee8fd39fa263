package marketplaceControllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
)

// fakeSource serves listings from a map; missing ids fail like the live API.
type fakeSource struct {
	listings map[string]Listing
}

func (f *fakeSource) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	out := make([]Listing, 0, len(f.listings))
	for _, l := range f.listings {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeSource) GetListing(ctx context.Context, listingID string) (Listing, error) {
	l, ok := f.listings[listingID]
	if !ok {
		return Listing{}, errors.New("listing not found: " + listingID)
	}
	return l, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func importRouter(db *gorm.DB, source ListingSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/marketplace/listings", BrowseListings(source))
	r.POST("/admin/marketplace/import", ImportListings(db, source, zap.NewNop()))
	return r
}

func postImport(t *testing.T, r *gin.Engine, ids []string) ImportResult {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(ImportInput{ListingIDs: ids}))
	req := httptest.NewRequest(http.MethodPost, "/admin/marketplace/import", &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestImportListingsPartialFailure(t *testing.T) {
	db := setupTestDB(t)
	source := &fakeSource{listings: map[string]Listing{
		"v1|100|0": {ListingID: "v1|100|0", Title: "Holo Cat", Price: 499, Currency: "USD", ImageURL: "https://img/cat.jpg"},
		"v1|101|0": {ListingID: "v1|101|0", Title: "Matte Dog", Price: 599, Currency: "USD"},
	}}
	r := importRouter(db, source)

	result := postImport(t, r, []string{"v1|100|0", "v1|999|0", "v1|101|0"})

	// A failed listing doesn't sink the batch.
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ImportedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "v1|999|0", result.Errors[0].ProductID)
	assert.Contains(t, result.Errors[0].Error, "not found")

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportListingsUpsertsByListingID(t *testing.T) {
	db := setupTestDB(t)
	source := &fakeSource{listings: map[string]Listing{
		"v1|100|0": {ListingID: "v1|100|0", Title: "Holo Cat", Price: 499},
	}}
	r := importRouter(db, source)

	postImport(t, r, []string{"v1|100|0"})
	source.listings["v1|100|0"] = Listing{ListingID: "v1|100|0", Title: "Holo Cat v2", Price: 549}
	postImport(t, r, []string{"v1|100|0"})

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var product models.Product
	require.NoError(t, db.Where("ebay_listing_id = ?", "v1|100|0").First(&product).Error)
	assert.Equal(t, "Holo Cat v2", product.Title)
	assert.Equal(t, int64(549), product.Price)
}

func TestBrowseListingsSurfacesSourceError(t *testing.T) {
	db := setupTestDB(t)
	r := importRouter(db, DisabledSource{})

	req := httptest.NewRequest(http.MethodGet, "/admin/marketplace/listings?q=cats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
