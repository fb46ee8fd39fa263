package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stickerverse/custom-sticker-shop-sub001/models"
	"github.com/stickerverse/custom-sticker-shop-sub001/pricing"
)

// ErrInvalidQuantity rejects zero or negative quantities; callers wanting
// removal must call Remove.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// localIDBase keeps locally generated guest item ids far away from
// server-assigned ones, so a later sign-in can't alias them.
const localIDBase uint = 1 << 30

// PendingChangeKind tags the optimistic notifications published before a
// mutation is confirmed.
type PendingChangeKind int

const (
	QuantityChanging PendingChangeKind = iota
	ItemRemoving
)

// PendingChange lets summary displays animate ahead of confirmation.
type PendingChange struct {
	Kind     PendingChangeKind
	ItemID   uint
	Quantity int
}

// CartObserver receives pending-change events. Callbacks run on the
// mutating goroutine and must not call back into the store.
type CartObserver interface {
	CartPending(change PendingChange)
}

// CartStore holds the shopping cart for both guest and authenticated modes.
// Guest carts live only in local storage; authenticated carts treat the
// server copy as authoritative and the local slice as a cache refreshed
// after each mutation.
type CartStore struct {
	mu          sync.Mutex
	api         *Client
	storage     Storage
	logger      *zap.Logger
	authed      bool
	items       []models.CartItem
	observers   []CartObserver
	nextLocalID uint
}

func NewCartStore(api *Client, storage Storage, authenticated bool, logger *zap.Logger) *CartStore {
	return &CartStore{
		api:         api,
		storage:     storage,
		logger:      logger,
		authed:      authenticated,
		nextLocalID: localIDBase,
	}
}

// Subscribe registers an observer for pending-change events.
func (s *CartStore) Subscribe(obs CartObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *CartStore) publish(change PendingChange) {
	s.mu.Lock()
	observers := make([]CartObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, obs := range observers {
		obs.CartPending(change)
	}
}

// Items returns a snapshot of the cart lines.
func (s *CartStore) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Totals prices the current cart with the shared formula. This is the
// optimistic estimate; the server recomputes the same numbers at checkout.
func (s *CartStore) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]pricing.Line, len(s.items))
	for i, item := range s.items {
		lines[i] = pricing.Line{
			BasePrice: item.ProductPrice,
			Options:   item.Options,
			Quantity:  item.Quantity,
		}
	}
	return pricing.Quote(lines)
}

// Authenticated reports the store's mode.
func (s *CartStore) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// Load populates the store: the server cart when authenticated, the
// persisted local cart otherwise. On failure the previous state is kept.
func (s *CartStore) Load(ctx context.Context) error {
	if s.Authenticated() {
		items, err := s.api.GetCart(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.items = items
		s.mu.Unlock()
		return nil
	}

	data, err := s.storage.Load(CartStorageKey)
	if err == ErrNotFound {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	for _, item := range items {
		if item.ID >= s.nextLocalID {
			s.nextLocalID = item.ID + 1
		}
	}
	s.mu.Unlock()
	return nil
}

// Add puts quantity units of a product in the cart. Guest adds merge into an
// existing line with identical options; authenticated adds defer that to the
// server.
func (s *CartStore) Add(ctx context.Context, productID uint, quantity int, opts pricing.Options) (models.CartItem, error) {
	if quantity < 1 {
		return models.CartItem{}, ErrInvalidQuantity
	}

	if s.Authenticated() {
		item, err := s.api.AddCartItem(ctx, productID, quantity, opts)
		if err != nil {
			return models.CartItem{}, err
		}
		s.mu.Lock()
		s.upsertLocked(item)
		s.mu.Unlock()
		return item, nil
	}

	// Guest path: the product snapshot comes from the catalog; a lookup
	// failure aborts the add with no state change.
	product, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		return models.CartItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID && s.items[i].Options.Equal(opts) {
			s.items[i].Quantity += quantity
			s.items[i].AddedAt = time.Now()
			s.persistLocked()
			return s.items[i], nil
		}
	}

	item := models.CartItem{
		ID:           s.nextLocalID,
		ProductID:    product.ID,
		ProductTitle: product.Title,
		ProductImage: product.Image,
		ProductPrice: product.Price,
		UnitPrice:    pricing.UnitPrice(product.Price, opts),
		Quantity:     quantity,
		Options:      opts,
		AddedAt:      time.Now(),
	}
	s.nextLocalID++
	s.items = append(s.items, item)
	s.persistLocked()
	return item, nil
}

// Update changes a line's quantity.
func (s *CartStore) Update(ctx context.Context, itemID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.publish(PendingChange{Kind: QuantityChanging, ItemID: itemID, Quantity: quantity})

	if s.Authenticated() {
		item, err := s.api.UpdateCartItem(ctx, itemID, quantity)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.upsertLocked(item)
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			s.persistLocked()
			return nil
		}
	}
	return errors.New("cart item not found")
}

// Remove deletes a line. In authenticated mode the local removal proceeds
// regardless; a failed server delete is still reported to the caller.
func (s *CartStore) Remove(ctx context.Context, itemID uint) error {
	s.publish(PendingChange{Kind: ItemRemoving, ItemID: itemID})

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	if !s.authed {
		s.persistLocked()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.api.DeleteCartItem(ctx, itemID); err != nil {
		s.logger.Warn("cart item delete failed on server", zap.Uint("item_id", itemID), zap.Error(err))
		return err
	}
	return nil
}

// Clear empties the cart, used after successful checkout.
func (s *CartStore) Clear(ctx context.Context) error {
	if s.Authenticated() {
		if err := s.api.ClearCart(ctx); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.items = nil
	if !s.authed {
		s.persistLocked()
	}
	s.mu.Unlock()
	return nil
}

// GuestLines renders the cart as the inline payload guest checkout submits.
func (s *CartStore) GuestLines() []GuestCartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]GuestCartLine, len(s.items))
	for i, item := range s.items {
		lines[i] = GuestCartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Options:   item.Options,
		}
	}
	return lines
}

// upsertLocked reconciles a server-returned item into the cache: the server
// may have merged the add into an existing line.
func (s *CartStore) upsertLocked(item models.CartItem) {
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = item
			return
		}
	}
	s.items = append(s.items, item)
}

// persistLocked writes the guest cart to durable local storage so it
// survives a reload. Caller holds the mutex.
func (s *CartStore) persistLocked() {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("failed to marshal guest cart", zap.Error(err))
		return
	}
	if err := s.storage.Save(CartStorageKey, data); err != nil {
		s.logger.Error("failed to persist guest cart", zap.Error(err))
	}
}
