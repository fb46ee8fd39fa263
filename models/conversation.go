package models

import (
	"errors"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

var ErrInvalidMessageType = errors.New("invalid message type")

// ParseMessageType validates a request-supplied message type.
func ParseMessageType(t string) (MessageType, error) {
	switch MessageType(t) {
	case MessageTypeText:
		return MessageTypeText, nil
	case MessageTypeImage:
		return MessageTypeImage, nil
	default:
		return "", ErrInvalidMessageType
	}
}

// Conversation is a buyer/seller chat thread, either linked to an order or
// opened directly from the storefront.
type Conversation struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   string    `gorm:"index;not null" json:"userId"`
	OrderID  *uint     `gorm:"index" json:"orderId,omitempty"`
	Subject  string    `json:"subject"`
	IsDirect bool      `json:"isDirect"`
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	// LastMessage is denormalized for list display.
	LastMessageID *uint     `json:"-"`
	LastMessage   *Message  `gorm:"foreignKey:LastMessageID" json:"lastMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Message struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	ConversationID uint        `gorm:"index" json:"conversationId"`
	SenderID       string      `gorm:"not null" json:"senderId"`
	MessageType    MessageType `gorm:"type:VARCHAR(10);default:'text'" json:"messageType"`
	Content        string      `json:"content"`
	ImageURL       string      `json:"imageUrl,omitempty"`
	Read           bool        `gorm:"default:false" json:"read"`
	CreatedAt      time.Time   `json:"createdAt"`
}
