package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.GuestUser{}, &models.Cart{}, &models.CartItem{}))
	return db
}

func authRouter(db *gorm.DB, blacklist TokenBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/register", Register(db))
	r.POST("/api/auth/login", Login(db))
	r.POST("/api/auth/logout", Logout(blacklist))
	r.POST("/api/auth/guest", CreateGuestUser(db))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := IssueToken("user-1", "admin")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseToken(token + "tampered")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterLoginLogout(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupTestDB(t)
	blacklist := NewMemoryBlacklist()
	r := authRouter(db, blacklist)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register",
		RegisterInput{Email: "a@example.com", Password: "hunter2hunter2", Name: "A"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Registration also provisions the user's cart.
	var cartCount int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&cartCount).Error)
	assert.Equal(t, int64(1), cartCount)

	// Duplicate email is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/auth/register",
		RegisterInput{Email: "a@example.com", Password: "hunter2hunter2"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login",
		LoginInput{Email: "a@example.com", Password: "hunter2hunter2"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login",
		LoginInput{Email: "a@example.com", Password: "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/logout", nil,
		map[string]string{"Authorization": resp.Token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, blacklist.IsRevoked(context.Background(), resp.Token))
}

func TestCreateGuestUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupTestDB(t)
	r := authRouter(db, NewMemoryBlacklist())

	w := doJSON(t, r, http.MethodPost, "/api/auth/guest", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		GuestID string `json:"guest_id"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.GuestID, "guest_"))

	claims, err := ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.GuestID, claims.UserID)
	assert.Equal(t, "guest", claims.Role)
}

func TestMemoryBlacklistExpiry(t *testing.T) {
	blacklist := NewMemoryBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "tok-long", time.Hour))
	assert.True(t, blacklist.IsRevoked(ctx, "tok-long"))

	require.NoError(t, blacklist.Revoke(ctx, "tok-expired", -time.Second))
	assert.False(t, blacklist.IsRevoked(ctx, "tok-expired"))

	assert.False(t, blacklist.IsRevoked(ctx, "never-seen"))
}
