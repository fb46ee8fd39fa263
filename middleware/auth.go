package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stickerverse/custom-sticker-shop-sub001/auth"
)

// ValidateToken authenticates /api requests. On success the gin context
// carries "user_id" and "role" for downstream handlers.
func ValidateToken(blacklist auth.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			c.Abort()
			return
		}

		if blacklist != nil && blacklist.IsRevoked(c.Request.Context(), tokenString) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireUser rejects guest tokens on operations that need a real account
// (cart sync, chat, checkout against a stored cart).
func RequireUser(c *gin.Context) {
	if c.GetString("role") == "guest" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in required"})
		c.Abort()
		return
	}
	c.Next()
}
