package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	// Price is the base unit price in subunits (cents).
	Price      int64      `gorm:"not null" json:"price"`
	Image      string     `json:"imageUrl"`
	Categories []Category `gorm:"many2many:product_categories;" json:"categories,omitempty"`
	// EbayListingID is set for products imported from the marketplace.
	EbayListingID string         `gorm:"index" json:"ebayListingId,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
