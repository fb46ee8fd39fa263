package marketplaceControllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a normalized external marketplace listing.
type Listing struct {
	ListingID string `json:"listingId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"` // subunits
	Currency  string `json:"currency"`
	ImageURL  string `json:"imageUrl"`
}

// ListingSource is the read side of the marketplace integration. The eBay
// Browse API implements it; tests substitute a fake.
type ListingSource interface {
	Search(ctx context.Context, query string, limit int) ([]Listing, error)
	GetListing(ctx context.Context, listingID string) (Listing, error)
}

// EbayClient talks to the eBay Browse API with an env-provided OAuth token.
// Token refresh is the deployment's concern, not this client's.
type EbayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewEbayClientFromEnv() (*EbayClient, error) {
	baseURL := os.Getenv("EBAY_API_URL")
	token := os.Getenv("EBAY_OAUTH_TOKEN")
	if baseURL == "" || token == "" {
		return nil, fmt.Errorf("ebay configuration missing")
	}
	return &EbayClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Wire shapes of the Browse API, reduced to the fields we consume.
type ebayPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayImage struct {
	ImageURL string `json:"imageUrl"`
}

type ebayItemSummary struct {
	ItemID string     `json:"itemId"`
	Title  string     `json:"title"`
	Price  ebayPrice  `json:"price"`
	Image  *ebayImage `json:"image"`
}

type ebaySearchResponse struct {
	ItemSummaries []ebayItemSummary `json:"itemSummaries"`
}

func (e *EbayClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach ebay: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ebay API error (%d): %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}

func (e *EbayClient) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	path := "/buy/browse/v1/item_summary/search?q=" + url.QueryEscape(query) +
		"&limit=" + strconv.Itoa(limit)

	var resp ebaySearchResponse
	if err := e.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(resp.ItemSummaries))
	for _, item := range resp.ItemSummaries {
		listing, err := normalizeListing(item)
		if err != nil {
			continue // skip listings with unparseable prices
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (e *EbayClient) GetListing(ctx context.Context, listingID string) (Listing, error) {
	var item ebayItemSummary
	if err := e.get(ctx, "/buy/browse/v1/item/"+url.PathEscape(listingID), &item); err != nil {
		return Listing{}, err
	}
	return normalizeListing(item)
}

func normalizeListing(item ebayItemSummary) (Listing, error) {
	price, err := decimal.NewFromString(item.Price.Value)
	if err != nil {
		return Listing{}, fmt.Errorf("unparseable listing price %q", item.Price.Value)
	}
	listing := Listing{
		ListingID: item.ItemID,
		Title:     item.Title,
		Price:     price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:  item.Price.Currency,
	}
	if item.Image != nil {
		listing.ImageURL = item.Image.ImageURL
	}
	return listing, nil
}
