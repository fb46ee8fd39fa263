package orderControllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

// GuestCartLine is one line of the inline cart a guest submits at checkout.
// Guests have no server-side cart, so the whole cart rides on the request.
type GuestCartLine struct {
	ProductID uint            `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Options   pricing.Options `json:"options"`
}

type CreateOrderInput struct {
	ShippingAddress models.Address  `json:"shippingAddress" binding:"required"`
	Total           int64           `json:"total"` // client estimate, informational
	Cart            []GuestCartLine `json:"cart"`  // guests only
}

type UpdateOrderStatusInput struct {
	Status          string `json:"status" binding:"required"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// POST /api/orders
//
// The order total is always recomputed here from the pricing formula; the
// client's estimate is only compared and logged when it diverges, never
// trusted.
func CreateOrder(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		role := c.GetString("role")

		var input CreateOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var orderItems []models.OrderItem
		var err error
		if role == "guest" {
			if len(input.Cart) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Guest orders require a cart payload"})
				return
			}
			orderItems, err = itemsFromGuestCart(db, input.Cart)
		} else {
			orderItems, err = itemsFromStoredCart(db, userID)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(orderItems) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			return
		}

		lines := make([]pricing.Line, len(orderItems))
		for i, item := range orderItems {
			lines[i] = pricing.Line{
				BasePrice: item.ProductPrice,
				Options:   item.Options,
				Quantity:  item.Quantity,
			}
		}
		totals := pricing.Quote(lines)

		if input.Total != 0 && input.Total != totals.Total {
			logger.Warn("client order total diverges from authoritative total",
				zap.String("user_id", userID),
				zap.Int64("client_total", input.Total),
				zap.Int64("server_total", totals.Total))
		}

		order := models.Order{
			UserID:          userID,
			Items:           orderItems,
			Subtotal:        totals.Subtotal,
			Tax:             totals.Tax,
			ShippingCost:    totals.Shipping,
			Total:           totals.Total,
			Status:          models.OrderStatusCreated,
			ShippingAddress: input.ShippingAddress,
			CreatedAt:       time.Now(),
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&order).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
			return
		}

		c.JSON(http.StatusCreated, order)
	}
}

func itemsFromStoredCart(db *gorm.DB, userID string) ([]models.OrderItem, error) {
	var cart models.Cart
	if err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, errCartNotFound
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID:    ci.ProductID,
			ProductTitle: ci.ProductTitle,
			ProductImage: ci.ProductImage,
			ProductPrice: ci.ProductPrice,
			UnitPrice:    pricing.UnitPrice(ci.ProductPrice, ci.Options),
			Quantity:     ci.Quantity,
			Options:      ci.Options,
		})
	}
	return items, nil
}

func itemsFromGuestCart(db *gorm.DB, lines []GuestCartLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		var product models.Product
		if err := db.First(&product, line.ProductID).Error; err != nil {
			return nil, errUnknownProduct
		}
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductTitle: product.Title,
			ProductImage: product.Image,
			ProductPrice: product.Price,
			UnitPrice:    pricing.UnitPrice(product.Price, line.Options),
			Quantity:     line.Quantity,
			Options:      line.Options,
		})
	}
	return items, nil
}

// GET /api/orders/:id
func GetOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		var order models.Order
		if err := db.Preload("Items").Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			}
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/orders
func GetUserOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var orders []models.Order
		if err := db.Preload("Items").Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// PATCH /api/orders/:id/status
//
// Used by checkout to move created → processing once payment is confirmed,
// attaching the payment confirmation id; later transitions come from
// fulfillment tooling on the admin surface.
func UpdateOrderStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		orderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
			return
		}

		var input UpdateOrderStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		status, err := models.ParseOrderStatus(input.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
			return
		}

		var order models.Order
		if err := db.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			}
			return
		}

		if !order.Status.CanTransitionTo(status) {
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
			return
		}

		order.Status = status
		if input.PaymentIntentID != "" {
			order.PaymentIntentID = input.PaymentIntentID
		}
		if err := db.Save(&order).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
