// Package client is the storefront SDK: the cart and chat stores, the
// realtime chat channel, and the checkout and admin-import flows. It computes
// optimistic prices with the same pricing package the server uses, so
// displayed totals match charged totals.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

// ErrUnauthenticated is returned by operations that need a signed-in user
// before any network call is made.
var ErrUnauthenticated = errors.New("sign in required")

// APIError is a non-2xx response, carrying the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Client is the REST client for the storefront API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	token    string
	userID   string
	apiKey   string // admin surface only
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetSession installs the token and user id returned by login or the guest
// endpoint.
func (c *Client) SetSession(token, userID string) {
	c.token = token
	c.userID = userID
}

// SetAPIKey enables the admin endpoints.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// UserID returns the identity of the current session.
func (c *Client) UserID() string { return c.userID }

// Authenticated reports whether a session token is installed.
func (c *Client) Authenticated() bool { return c.token != "" }

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: errBody.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: string(raw)}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// ──────────────── Auth ────────────────

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	var s session
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return models.User{}, err
	}
	c.SetSession(s.Token, s.User.ID)
	return s.User, nil
}

func (c *Client) Register(ctx context.Context, email, password, name string) (models.User, error) {
	var s session
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password, "name": name}, &s)
	if err != nil {
		return models.User{}, err
	}
	c.SetSession(s.Token, s.User.ID)
	return s.User, nil
}

// StartGuestSession obtains a guest identity for chat and checkout.
func (c *Client) StartGuestSession(ctx context.Context) (string, error) {
	var resp struct {
		GuestID string `json:"guest_id"`
		Token   string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/guest", nil, &resp); err != nil {
		return "", err
	}
	c.SetSession(resp.Token, resp.GuestID)
	return resp.GuestID, nil
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	return user, err
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.token = ""
	c.userID = ""
	return err
}

// ──────────────── Catalog ────────────────

func (c *Client) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+strconv.Itoa(int(id)), nil, &product)
	return product, err
}

func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &products)
	return products, err
}

// ──────────────── Cart ────────────────

func (c *Client) GetCart(ctx context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	err := c.do(ctx, http.MethodGet, "/api/cart", nil, &items)
	return items, err
}

func (c *Client) AddCartItem(ctx context.Context, productID uint, quantity int, opts pricing.Options) (models.CartItem, error) {
	var item models.CartItem
	err := c.do(ctx, http.MethodPost, "/api/cart", map[string]interface{}{
		"productId": productID,
		"quantity":  quantity,
		"options":   opts,
	}, &item)
	return item, err
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID uint, quantity int) (models.CartItem, error) {
	var item models.CartItem
	err := c.do(ctx, http.MethodPut, "/api/cart/"+strconv.Itoa(int(itemID)),
		map[string]int{"quantity": quantity}, &item)
	return item, err
}

func (c *Client) DeleteCartItem(ctx context.Context, itemID uint) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/"+strconv.Itoa(int(itemID)), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", nil, nil)
}

// ──────────────── Orders & payment ────────────────

// GuestCartLine mirrors the inline cart payload guests send at checkout.
type GuestCartLine struct {
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	Options   pricing.Options `json:"options"`
}

type CreateOrderRequest struct {
	ShippingAddress models.Address  `json:"shippingAddress"`
	Total           int64           `json:"total"`
	Cart            []GuestCartLine `json:"cart,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPost, "/api/orders", req, &order)
	return order, err
}

func (c *Client) GetOrder(ctx context.Context, orderID uint) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodGet, "/api/orders/"+strconv.Itoa(int(orderID)), nil, &order)
	return order, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID uint, status models.OrderStatus, paymentIntentID string) (models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPatch, "/api/orders/"+strconv.Itoa(int(orderID))+"/status",
		map[string]string{
			"status":          string(status),
			"paymentIntentId": paymentIntentID,
		}, &order)
	return order, err
}

// PaymentIntent is the server's reply to an intent request. Amount is the
// authoritative order total.
type PaymentIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, orderID uint) (PaymentIntent, error) {
	var intent PaymentIntent
	err := c.do(ctx, http.MethodPost, "/api/payment/intent",
		map[string]uint{"orderId": orderID}, &intent)
	return intent, err
}

// ──────────────── Chat ────────────────

func (c *Client) GetConversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &conversations)
	return conversations, err
}

func (c *Client) GetConversation(ctx context.Context, id uint) (models.Conversation, error) {
	var conversation models.Conversation
	err := c.do(ctx, http.MethodGet, "/api/conversations/"+strconv.Itoa(int(id)), nil, &conversation)
	return conversation, err
}

func (c *Client) CreateConversation(ctx context.Context, subject string, orderID *uint) (models.Conversation, error) {
	var conversation models.Conversation
	err := c.do(ctx, http.MethodPost, "/api/conversations", map[string]interface{}{
		"subject": subject,
		"orderId": orderID,
	}, &conversation)
	return conversation, err
}

type SendMessageRequest struct {
	ConversationID uint   `json:"-"`
	Content        string `json:"content"`
	Type           string `json:"messageType"`
	ImageURL       string `json:"imageUrl,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (models.Message, error) {
	var message models.Message
	err := c.do(ctx, http.MethodPost,
		"/api/conversations/"+strconv.Itoa(int(req.ConversationID))+"/messages",
		map[string]string{
			"userId":      c.userID,
			"messageType": req.Type,
			"content":     req.Content,
			"imageUrl":    req.ImageURL,
		}, &message)
	return message, err
}

// ──────────────── Customizer image tooling ────────────────

func (c *Client) RemoveBackground(ctx context.Context, imageURL string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, http.MethodPost, "/api/image/remove-background",
		map[string]string{"imageUrl": imageURL}, &resp)
	return resp.URL, err
}

func (c *Client) DetectBorders(ctx context.Context, imageURL string, lowThreshold, highThreshold int) (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.do(ctx, http.MethodPost, "/api/image/detect-borders", map[string]interface{}{
		"imageUrl":      imageURL,
		"lowThreshold":  lowThreshold,
		"highThreshold": highThreshold,
	}, &resp)
	return resp, err
}

// ──────────────── Admin marketplace ────────────────

// MarketplaceListing mirrors the server's normalized listing shape.
type MarketplaceListing struct {
	ListingID string `json:"listingId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	ImageURL  string `json:"imageUrl"`
}

type ImportItemError struct {
	ProductID string `json:"productId"`
	Error     string `json:"error"`
}

type ImportResult struct {
	Success       bool              `json:"success"`
	ImportedCount int               `json:"importedCount"`
	Errors        []ImportItemError `json:"errors"`
}

func (c *Client) BrowseListings(ctx context.Context, query string, limit int) ([]MarketplaceListing, error) {
	path := "/admin/marketplace/listings?q=" + url.QueryEscape(query) + "&limit=" + strconv.Itoa(limit)
	var listings []MarketplaceListing
	err := c.do(ctx, http.MethodGet, path, nil, &listings)
	return listings, err
}

func (c *Client) ImportListings(ctx context.Context, listingIDs []string) (ImportResult, error) {
	var result ImportResult
	err := c.do(ctx, http.MethodPost, "/admin/marketplace/import",
		map[string][]string{"listingIds": listingIDs}, &result)
	return result, err
}
