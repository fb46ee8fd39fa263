package paymentControllers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
)

type CreateIntentInput struct {
	OrderID uint `json:"orderId" binding:"required"`
}

// InitStripe configures the Stripe client from the environment. Returns an
// error when the secret key is missing so startup can fail loudly.
func InitStripe() error {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return fmt.Errorf("stripe configuration missing")
	}
	stripe.Key = key
	return nil
}

func currency() string {
	if c := os.Getenv("STRIPE_CURRENCY"); c != "" {
		return c
	}
	return "usd"
}

// POST /api/payment/intent
//
// Creates a PaymentIntent for the order's authoritative total. The client
// confirms it with the hosted payment element; processor errors there are
// shown to the buyer verbatim.
func CreatePaymentIntent(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input CreateIntentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var order models.Order
		if err := db.Where("id = ? AND user_id = ?", input.OrderID, userID).First(&order).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			}
			return
		}
		if order.Status != models.OrderStatusCreated {
			c.JSON(http.StatusConflict, gin.H{"error": "Order is not awaiting payment"})
			return
		}

		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(order.Total),
			Currency: stripe.String(currency()),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
		}
		params.AddMetadata("order_id", strconv.Itoa(int(order.ID)))
		params.AddMetadata("user_id", userID)

		intent, err := paymentintent.New(params)
		if err != nil {
			logger.Error("failed to create payment intent",
				zap.Uint("order_id", order.ID),
				zap.Error(err))
			// The processor's message goes back verbatim; the buyer sees
			// exactly what Stripe said.
			if stripeErr, ok := err.(*stripe.Error); ok {
				c.JSON(http.StatusBadGateway, gin.H{"error": stripeErr.Msg})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"clientSecret":    intent.ClientSecret,
			"paymentIntentId": intent.ID,
			"amount":          order.Total,
		})
	}
}
