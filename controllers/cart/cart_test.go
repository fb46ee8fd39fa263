package cartControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}))
	return db
}

func testRouter(db *gorm.DB, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
	})
	r.GET("/api/cart", GetCart(db))
	r.POST("/api/cart", AddCartItem(db))
	r.PUT("/api/cart/:id", UpdateCartItem(db))
	r.DELETE("/api/cart/:id", DeleteCartItem(db))
	r.DELETE("/api/cart", ClearCart(db))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedProduct(t *testing.T, db *gorm.DB) models.Product {
	t.Helper()
	product := models.Product{Title: "Holo Cat", Price: 500}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func float64p(v float64) *float64 { return &v }

func TestAddCartItemComputesUnitPrice(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	r := testRouter(db, "user-1")

	w := doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{
		ProductID: product.ID,
		Quantity:  2,
		Options:   pricing.Options{Material: "vinyl", MaterialMultiplier: float64p(1.5)},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var item models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, int64(750), item.UnitPrice)
	assert.Equal(t, int64(500), item.ProductPrice)
}

func TestAddCartItemMergesIdenticalOptions(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	r := testRouter(db, "user-1")

	opts := pricing.Options{Material: "vinyl"}
	w := doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 2, Options: opts})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 3, Options: opts})
	require.Equal(t, http.StatusOK, w.Code)

	var merged models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &merged))
	assert.Equal(t, 5, merged.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddCartItemDifferentOptionsMakesNewLine(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	r := testRouter(db, "user-1")

	doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 1,
		Options: pricing.Options{Material: "vinyl"}})
	doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 1,
		Options: pricing.Options{Material: "paper"}})

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db, "user-1")

	w := doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: 999, Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCartItemOwnership(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)

	owner := testRouter(db, "user-1")
	w := doJSON(t, owner, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 1})
	require.Equal(t, http.StatusCreated, w.Code)
	var item models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	// Another user cannot touch the line.
	other := testRouter(db, "user-2")
	w = doJSON(t, other, http.MethodPut, "/api/cart/1", UpdateCartItemInput{Quantity: 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, owner, http.MethodPut, "/api/cart/1", UpdateCartItemInput{Quantity: 5})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, 5, item.Quantity)
}

func TestDeleteAndClearCart(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	r := testRouter(db, "user-1")

	doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 1,
		Options: pricing.Options{Material: "vinyl"}})
	doJSON(t, r, http.MethodPost, "/api/cart", AddCartItemInput{ProductID: product.ID, Quantity: 1,
		Options: pricing.Options{Material: "paper"}})

	w := doJSON(t, r, http.MethodDelete, "/api/cart/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGetCartCreatesOnFirstUse(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db, "user-1")

	w := doJSON(t, r, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.CartItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Empty(t, items)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
