package orderControllers

import (
	"bytes"
	"encoding/json"
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
	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
	))
	return db
}

// testRouter wires the order handlers behind a stub identity middleware.
func testRouter(db *gorm.DB, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
	})
	r.POST("/api/orders", CreateOrder(db, zap.NewNop()))
	r.GET("/api/orders/:id", GetOrder(db))
	r.GET("/api/orders", GetUserOrders(db))
	r.PATCH("/api/orders/:id/status", UpdateOrderStatus(db))
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

func seedProduct(t *testing.T, db *gorm.DB, price int64) models.Product {
	t.Helper()
	product := models.Product{Title: "Holo Cat", Price: price}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestGuestOrderRecomputesTotals(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db, 500)
	r := testRouter(db, "guest_abc", "guest")

	// The client's estimate is deliberately wrong; the stored totals must
	// come from the formula, not the payload.
	w := doJSON(t, r, http.MethodPost, "/api/orders", CreateOrderInput{
		ShippingAddress: models.Address{Name: "A", Street: "1 Main St", City: "Springfield"},
		Total:           1,
		Cart: []GuestCartLine{
			{ProductID: product.ID, Quantity: 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, int64(1000), order.Subtotal)
	assert.Equal(t, int64(80), order.Tax)
	assert.Equal(t, pricing.ShippingFlatFee, order.ShippingCost)
	assert.Equal(t, int64(1580), order.Total)
	assert.Equal(t, models.OrderStatusCreated, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(500), order.Items[0].UnitPrice)
}

func TestGuestOrderRequiresCartPayload(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db, "guest_abc", "guest")

	w := doJSON(t, r, http.MethodPost, "/api/orders", CreateOrderInput{
		ShippingAddress: models.Address{Name: "A", Street: "1 Main St"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestOrderUnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db, "guest_abc", "guest")

	w := doJSON(t, r, http.MethodPost, "/api/orders", CreateOrderInput{
		ShippingAddress: models.Address{Name: "A", Street: "1 Main St"},
		Cart:            []GuestCartLine{{ProductID: 999, Quantity: 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthenticatedOrderUsesStoredCart(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db, 300)

	cart := models.Cart{UserID: "user-1"}
	require.NoError(t, db.Create(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID:       cart.CartID,
		ProductID:    product.ID,
		ProductTitle: product.Title,
		ProductPrice: product.Price,
		Quantity:     10,
		Options:      pricing.Options{MaterialMultiplier: float64p(2)},
	}).Error)

	r := testRouter(db, "user-1", "user")
	w := doJSON(t, r, http.MethodPost, "/api/orders", CreateOrderInput{
		ShippingAddress: models.Address{Name: "A", Street: "1 Main St"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// unit 600, 10% tier discount at qty 10 → 540 each.
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, int64(5400), order.Subtotal)
	assert.Equal(t, int64(432), order.Tax)
	assert.Equal(t, int64(5400+432+500), order.Total)
}

func TestAuthenticatedOrderEmptyCart(t *testing.T) {
	db := setupTestDB(t)
	cart := models.Cart{UserID: "user-1"}
	require.NoError(t, db.Create(&cart).Error)

	r := testRouter(db, "user-1", "user")
	w := doJSON(t, r, http.MethodPost, "/api/orders", CreateOrderInput{
		ShippingAddress: models.Address{Name: "A", Street: "1 Main St"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrderScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	order := models.Order{UserID: "user-1", Total: 100, Status: models.OrderStatusCreated}
	require.NoError(t, db.Create(&order).Error)

	w := doJSON(t, testRouter(db, "user-1", "user"), http.MethodGet, "/api/orders/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, testRouter(db, "user-2", "user"), http.MethodGet, "/api/orders/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	order := models.Order{UserID: "user-1", Total: 100, Status: models.OrderStatusCreated}
	require.NoError(t, db.Create(&order).Error)
	r := testRouter(db, "user-1", "user")

	// created → shipped skips the pipeline.
	w := doJSON(t, r, http.MethodPatch, "/api/orders/1/status",
		UpdateOrderStatusInput{Status: "shipped"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// created → processing attaches the payment reference.
	w = doJSON(t, r, http.MethodPatch, "/api/orders/1/status",
		UpdateOrderStatusInput{Status: "processing", PaymentIntentID: "pi_123"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)
	assert.Equal(t, "pi_123", updated.PaymentIntentID)

	w = doJSON(t, r, http.MethodPatch, "/api/orders/1/status",
		UpdateOrderStatusInput{Status: "nonsense"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func float64p(v float64) *float64 { return &v }
