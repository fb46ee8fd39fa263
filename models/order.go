package models

import (
	"errors"
	"strings"
	"time"

	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

type OrderStatus string

const (
	OrderStatusCreated      OrderStatus = "created"       // order placed, payment not confirmed
	OrderStatusProcessing   OrderStatus = "processing"    // payment confirmed
	OrderStatusInProduction OrderStatus = "in_production" // stickers being printed
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

var ErrInvalidOrderStatus = errors.New("invalid order status")

// ParseOrderStatus maps a request string to an OrderStatus.
func ParseOrderStatus(status string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(status)) {
	case OrderStatusCreated:
		return OrderStatusCreated, nil
	case OrderStatusProcessing:
		return OrderStatusProcessing, nil
	case OrderStatusInProduction:
		return OrderStatusInProduction, nil
	case OrderStatusShipped:
		return OrderStatusShipped, nil
	case OrderStatusDelivered:
		return OrderStatusDelivered, nil
	case OrderStatusCancelled:
		return OrderStatusCancelled, nil
	default:
		return "", ErrInvalidOrderStatus
	}
}

// CanTransitionTo enforces the fulfillment pipeline: created → processing →
// in_production → shipped → delivered, with cancellation allowed until the
// order ships.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return s == OrderStatusCreated || s == OrderStatusProcessing || s == OrderStatusInProduction
	}
	order := map[OrderStatus]int{
		OrderStatusCreated:      0,
		OrderStatusProcessing:   1,
		OrderStatusInProduction: 2,
		OrderStatusShipped:      3,
		OrderStatusDelivered:    4,
	}
	cur, ok := order[s]
	if !ok {
		return false
	}
	nxt, ok := order[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}

type Order struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	UserID string      `gorm:"index;not null" json:"userId"`
	Items  []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	// All amounts in subunits, computed server-side from the pricing formula.
	Subtotal        int64       `json:"subtotal"`
	Tax             int64       `json:"tax"`
	ShippingCost    int64       `json:"shippingCost"`
	Total           int64       `json:"total"`
	Status          OrderStatus `gorm:"type:VARCHAR(20);default:'created'" json:"status"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty"`
	ShippingAddress Address     `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	CreatedAt       time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"index" json:"-"`
	ProductID    uint            `json:"productId"`
	ProductTitle string          `json:"productTitle"`
	ProductImage string          `json:"productImage"`
	ProductPrice int64           `json:"productPrice"`
	UnitPrice    int64           `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	Options      pricing.Options `gorm:"serializer:json" json:"options"`
}
