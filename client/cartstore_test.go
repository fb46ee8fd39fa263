package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

func float64p(v float64) *float64 { return &v }

func catalogServer(t *testing.T, products map[uint]models.Product) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for id, p := range products {
		product := p
		mux.HandleFunc("/api/products/"+strconv.Itoa(int(id)), func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(product)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGuestAddMergesIdenticalOptions(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	store := NewCartStore(NewClient(srv.URL), NewMemoryStorage(), false, zap.NewNop())

	opts := pricing.Options{Material: "vinyl", MaterialMultiplier: float64p(1.5)}
	_, err := store.Add(context.Background(), 1, 2, opts)
	require.NoError(t, err)
	_, err = store.Add(context.Background(), 1, 3, opts)
	require.NoError(t, err)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, int64(750), items[0].UnitPrice)
}

func TestGuestAddDifferentOptionsMakesNewLine(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	store := NewCartStore(NewClient(srv.URL), NewMemoryStorage(), false, zap.NewNop())

	_, err := store.Add(context.Background(), 1, 1, pricing.Options{Material: "vinyl"})
	require.NoError(t, err)
	_, err = store.Add(context.Background(), 1, 1, pricing.Options{Material: "paper"})
	require.NoError(t, err)

	items := store.Items()
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestGuestCartSurvivesReload(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	storage := NewMemoryStorage()

	store := NewCartStore(NewClient(srv.URL), storage, false, zap.NewNop())
	added, err := store.Add(context.Background(), 1, 2, pricing.Options{})
	require.NoError(t, err)

	reloaded := NewCartStore(NewClient(srv.URL), storage, false, zap.NewNop())
	require.NoError(t, reloaded.Load(context.Background()))

	items := reloaded.Items()
	require.Len(t, items, 1)
	assert.Equal(t, added.ID, items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)

	// Local id generation resumes past the persisted ids.
	next, err := reloaded.Add(context.Background(), 1, 1, pricing.Options{Finish: "glossy"})
	require.NoError(t, err)
	assert.Greater(t, next.ID, added.ID)
}

func TestGuestLoadWithEmptyStorage(t *testing.T) {
	store := NewCartStore(NewClient("http://unused"), NewMemoryStorage(), false, zap.NewNop())
	require.NoError(t, store.Load(context.Background()))
	assert.Empty(t, store.Items())
}

func TestGuestUpdateAndRemove(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	store := NewCartStore(NewClient(srv.URL), NewMemoryStorage(), false, zap.NewNop())
	item, err := store.Add(context.Background(), 1, 1, pricing.Options{})
	require.NoError(t, err)

	require.NoError(t, store.Update(context.Background(), item.ID, 4))
	assert.Equal(t, 4, store.Items()[0].Quantity)

	assert.ErrorIs(t, store.Update(context.Background(), item.ID, 0), ErrInvalidQuantity)

	require.NoError(t, store.Remove(context.Background(), item.ID))
	assert.Empty(t, store.Items())
}

func TestTotalsUseSharedFormula(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	store := NewCartStore(NewClient(srv.URL), NewMemoryStorage(), false, zap.NewNop())
	_, err := store.Add(context.Background(), 1, 2, pricing.Options{})
	require.NoError(t, err)

	totals := store.Totals()
	assert.Equal(t, int64(1000), totals.Subtotal)
	assert.Equal(t, int64(80), totals.Tax)
	assert.Equal(t, pricing.ShippingFlatFee, totals.Shipping)
	assert.Equal(t, int64(1580), totals.Total)
}

type recordingObserver struct {
	changes []PendingChange
}

func (o *recordingObserver) CartPending(change PendingChange) {
	o.changes = append(o.changes, change)
}

func TestPendingChangesReachObservers(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	store := NewCartStore(NewClient(srv.URL), NewMemoryStorage(), false, zap.NewNop())
	obs := &recordingObserver{}
	store.Subscribe(obs)

	item, err := store.Add(context.Background(), 1, 1, pricing.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), item.ID, 3))
	require.NoError(t, store.Remove(context.Background(), item.ID))

	require.Len(t, obs.changes, 2)
	assert.Equal(t, PendingChange{Kind: QuantityChanging, ItemID: item.ID, Quantity: 3}, obs.changes[0])
	assert.Equal(t, PendingChange{Kind: ItemRemoving, ItemID: item.ID}, obs.changes[1])
}

func TestSubscribeDuringMutations(t *testing.T) {
	srv := catalogServer(t, map[uint]models.Product{
		1: {ID: 1, Title: "Holo Cat", Price: 500},
	})
	store := NewCartStore(NewClient(srv.URL), NewMemoryStorage(), false, zap.NewNop())
	item, err := store.Add(context.Background(), 1, 1, pricing.Options{})
	require.NoError(t, err)

	// Late subscribers racing quantity updates must not corrupt the
	// observer list.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			store.Subscribe(&recordingObserver{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			require.NoError(t, store.Update(context.Background(), item.ID, 1+i%5))
		}
	}()
	wg.Wait()
}

func TestAuthenticatedCartDelegatesToServer(t *testing.T) {
	serverItems := []models.CartItem{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(serverItems)
		case http.MethodPost:
			var body struct {
				ProductID uint            `json:"productId"`
				Quantity  int             `json:"quantity"`
				Options   pricing.Options `json:"options"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			item := models.CartItem{
				ID:        uint(len(serverItems) + 1),
				ProductID: body.ProductID,
				UnitPrice: pricing.UnitPrice(500, body.Options),
				Quantity:  body.Quantity,
				Options:   body.Options,
			}
			serverItems = append(serverItems, item)
			json.NewEncoder(w).Encode(item)
		}
	})
	mux.HandleFunc("/api/cart/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	api := NewClient(srv.URL)
	api.SetSession("token", "user-1")
	store := NewCartStore(api, NewMemoryStorage(), true, zap.NewNop())

	item, err := store.Add(context.Background(), 1, 2, pricing.Options{})
	require.NoError(t, err)
	assert.Equal(t, uint(1), item.ID)
	require.Len(t, store.Items(), 1)

	// Removal proceeds locally even when the server delete fails, and the
	// failure is still reported.
	err = store.Remove(context.Background(), item.ID)
	require.Error(t, err)
	assert.Empty(t, store.Items())
}
