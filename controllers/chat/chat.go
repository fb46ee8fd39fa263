package chatControllers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/ws"
)

type CreateConversationInput struct {
	Subject string `json:"subject" binding:"required"`
	OrderID *uint  `json:"orderId"`
}

type SendMessageInput struct {
	UserID      string `json:"userId" binding:"required"`
	MessageType string `json:"messageType" binding:"required"`
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl"`
}

// sellerID is the storefront-side chat participant. Every conversation is
// between one buyer and the shop.
func sellerID() string {
	if id := os.Getenv("SELLER_USER_ID"); id != "" {
		return id
	}
	return "seller"
}

// GET /api/conversations
func GetConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var conversations []models.Conversation
		if err := db.Preload("LastMessage").
			Where("user_id = ?", userID).
			Order("updated_at desc").
			Find(&conversations).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
			return
		}
		c.JSON(http.StatusOK, conversations)
	}
}

// GET /api/conversations/:id
func GetConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		convID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
			return
		}

		var conversation models.Conversation
		if err := db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at")
		}).Preload("LastMessage").
			Where("id = ? AND user_id = ?", convID, userID).
			First(&conversation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
			}
			return
		}
		c.JSON(http.StatusOK, conversation)
	}
}

// POST /api/conversations
func CreateConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input CreateConversationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		conversation := models.Conversation{
			UserID:   userID,
			OrderID:  input.OrderID,
			Subject:  input.Subject,
			IsDirect: input.OrderID == nil,
		}
		if err := db.Create(&conversation).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
			return
		}
		c.JSON(http.StatusCreated, conversation)
	}
}

// POST /api/conversations/:id/messages
func SendMessage(db *gorm.DB, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		convID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
			return
		}

		var input SendMessageInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		messageType, err := models.ParseMessageType(input.MessageType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message type"})
			return
		}
		if messageType == models.MessageTypeText && input.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is required"})
			return
		}
		if messageType == models.MessageTypeImage && input.ImageURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL is required"})
			return
		}

		// The conversation must belong to the caller unless the caller is
		// the shop side.
		var conversation models.Conversation
		query := db.Where("id = ?", convID)
		if c.GetString("role") != "admin" {
			query = query.Where("user_id = ?", userID)
		}
		if err := query.First(&conversation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
			}
			return
		}

		message := models.Message{
			ConversationID: conversation.ID,
			SenderID:       input.UserID,
			MessageType:    messageType,
			Content:        input.Content,
			ImageURL:       input.ImageURL,
			CreatedAt:      time.Now(),
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&message).Error; err != nil {
				return err
			}
			return tx.Model(&conversation).Updates(map[string]interface{}{
				"last_message_id": message.ID,
				"updated_at":      time.Now(),
			}).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
			return
		}

		// Push to both sides; the sender's other tabs want it too.
		hub.BroadcastMessage(message, conversation.UserID, sellerID())

		c.JSON(http.StatusCreated, message)
	}
}

// POST /api/conversations/:id/read marks all inbound messages as read.
func MarkConversationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		convID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
			return
		}

		var conversation models.Conversation
		if err := db.Where("id = ? AND user_id = ?", convID, userID).First(&conversation).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}

		if err := db.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND read = ?", convID, userID, false).
			Update("read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark conversation read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Conversation marked read"})
	}
}
