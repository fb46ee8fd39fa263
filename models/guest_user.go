package models

import "time"

// GuestUser is a short-lived identity for unauthenticated sessions. Guest
// carts live on the client; the guest record only anchors chat and orders.
type GuestUser struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}
