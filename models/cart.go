package models

import (
	"time"

	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

type Cart struct {
	CartID    uint       `gorm:"primaryKey" json:"cartId"`
	UserID    string     `gorm:"uniqueIndex" json:"userId"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CartID    uint `gorm:"index" json:"-"`
	ProductID uint `json:"productId"`
	// Product snapshot, captured at add time.
	ProductTitle string `json:"productTitle"`
	ProductImage string `json:"productImage"`
	ProductPrice int64  `json:"productPrice"`
	// UnitPrice is the server-computed effective price for Options,
	// in subunits. Recomputed on every write.
	UnitPrice int64           `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Options   pricing.Options `gorm:"serializer:json" json:"options"`
	AddedAt   time.Time       `json:"addedAt"`
}
