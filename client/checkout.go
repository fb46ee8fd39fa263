package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
)

// PaymentConfirmer completes a payment against the processor using the
// intent's client secret. In production this wraps the processor's browser
// SDK; tests substitute a fake.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret string) (paymentIntentID string, err error)
}

// PaymentSyncError means the customer was charged but the order record could
// not be advanced. The payment must not be retried; support resolves it from
// the order and intent ids.
type PaymentSyncError struct {
	OrderID         uint
	PaymentIntentID string
	Err             error
}

func (e *PaymentSyncError) Error() string {
	return fmt.Sprintf("payment succeeded but order %d could not be updated, contact support with payment reference %s: %v",
		e.OrderID, e.PaymentIntentID, e.Err)
}

func (e *PaymentSyncError) Unwrap() error { return e.Err }

// CheckoutResult reports the completed purchase.
type CheckoutResult struct {
	OrderID uint
	Total   int64
}

// CheckoutFlow drives a cart through order creation, payment, and
// confirmation. The cart is cleared only after the order is fully paid and
// marked processing, so any failure leaves it intact for another attempt.
type CheckoutFlow struct {
	api       *Client
	cart      *CartStore
	confirmer PaymentConfirmer
	logger    *zap.Logger
}

func NewCheckoutFlow(api *Client, cart *CartStore, confirmer PaymentConfirmer, logger *zap.Logger) *CheckoutFlow {
	return &CheckoutFlow{api: api, cart: cart, confirmer: confirmer, logger: logger}
}

// Run executes the full checkout. The locally estimated total rides along on
// the order request, but the server's recomputed figures are authoritative;
// the intent amount is checked against the order total before any money
// moves.
func (f *CheckoutFlow) Run(ctx context.Context, shippingAddress models.Address) (CheckoutResult, error) {
	estimate := f.cart.Totals()

	req := CreateOrderRequest{
		ShippingAddress: shippingAddress,
		Total:           estimate.Total,
	}
	if !f.cart.Authenticated() {
		req.Cart = f.cart.GuestLines()
	}

	order, err := f.api.CreateOrder(ctx, req)
	if err != nil {
		return CheckoutResult{}, err
	}
	if order.Total != estimate.Total {
		f.logger.Warn("order total differs from local estimate",
			zap.Uint("order_id", order.ID),
			zap.Int64("estimated", estimate.Total),
			zap.Int64("charged", order.Total))
	}

	intent, err := f.api.CreatePaymentIntent(ctx, order.ID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if intent.Amount != order.Total {
		return CheckoutResult{}, fmt.Errorf("payment intent amount %d does not match order total %d", intent.Amount, order.Total)
	}

	// A declined or failed payment surfaces the processor's message as-is
	// and leaves the cart untouched.
	paymentIntentID, err := f.confirmer.ConfirmPayment(ctx, intent.ClientSecret)
	if err != nil {
		return CheckoutResult{}, err
	}

	if _, err := f.api.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing, paymentIntentID); err != nil {
		return CheckoutResult{}, &PaymentSyncError{
			OrderID:         order.ID,
			PaymentIntentID: paymentIntentID,
			Err:             err,
		}
	}

	if err := f.cart.Clear(ctx); err != nil {
		// The purchase is complete; a stale cart is a nuisance, not a
		// failure.
		f.logger.Warn("cart clear failed after checkout", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	return CheckoutResult{OrderID: order.ID, Total: order.Total}, nil
}
