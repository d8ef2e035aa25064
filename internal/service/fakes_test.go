package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/upstream"
)

var sgd = currency.MustParseISO("SGD")

func remoteItem(id, name, linePrice, currentPrice string, quantity int, deleted bool) upstream.CartItem {
	return upstream.CartItem{
		Product: upstream.Product{
			ID:      upstream.ID(id),
			Name:    name,
			Price:   decimal.RequireFromString(currentPrice),
			Stock:   10,
			Deleted: deleted,
		},
		Price:    decimal.RequireFromString(linePrice),
		Quantity: quantity,
	}
}

type upstreamCall struct {
	op        string
	token     string
	productID string
	quantity  int
}

type fakeUpstream struct {
	cart       *upstream.Cart
	count      int
	orders     []upstream.Order
	products   []upstream.Product
	getCartErr error
	mutateErr  error
	completeFn func() error
	calls      []upstreamCall
}

func (f *fakeUpstream) record(op, token, productID string, quantity int) {
	f.calls = append(f.calls, upstreamCall{op: op, token: token, productID: productID, quantity: quantity})
}

func (f *fakeUpstream) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

func (f *fakeUpstream) GetCart(_ context.Context, token string) (*upstream.Cart, error) {
	f.record("get_cart", token, "", 0)
	if f.getCartErr != nil {
		return nil, f.getCartErr
	}
	if f.cart == nil {
		return &upstream.Cart{}, nil
	}
	return f.cart, nil
}

func (f *fakeUpstream) AddToCart(_ context.Context, token, productID string, quantity int) error {
	f.record("add", token, productID, quantity)
	return f.mutateErr
}

func (f *fakeUpstream) UpdateCartItem(_ context.Context, token, productID string, quantity int) error {
	f.record("update", token, productID, quantity)
	return f.mutateErr
}

func (f *fakeUpstream) RemoveFromCart(_ context.Context, token, productID string) error {
	f.record("remove", token, productID, 0)
	return f.mutateErr
}

func (f *fakeUpstream) GetCartCount(_ context.Context, token string) (int, error) {
	f.record("count", token, "", 0)
	return f.count, f.getCartErr
}

func (f *fakeUpstream) GetOrderHistory(_ context.Context, token string) ([]upstream.Order, error) {
	f.record("orders", token, "", 0)
	return f.orders, f.getCartErr
}

func (f *fakeUpstream) CompleteOrder(_ context.Context, token string) error {
	f.record("complete", token, "", 0)
	if f.completeFn != nil {
		return f.completeFn()
	}
	return nil
}

func (f *fakeUpstream) GetProducts(context.Context) ([]upstream.Product, error) {
	f.record("products", "", "", 0)
	return f.products, f.getCartErr
}

func (f *fakeUpstream) GetProduct(_ context.Context, productID string) (*upstream.Product, error) {
	f.record("product", "", productID, 0)
	if f.getCartErr != nil {
		return nil, f.getCartErr
	}
	for _, p := range f.products {
		if string(p.ID) == productID {
			return &p, nil
		}
	}
	return nil, &upstream.StatusError{StatusCode: 404}
}

type fakeCache struct {
	products      []catalog.Product
	getErr        error
	sets          int
	invalidations int
	ttl           time.Duration
}

func (f *fakeCache) GetCatalog(context.Context) ([]catalog.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.products == nil {
		return nil, redisclient.ErrCacheMiss
	}
	return f.products, nil
}

func (f *fakeCache) SetCatalog(_ context.Context, products []catalog.Product, ttl time.Duration) error {
	f.products = products
	f.ttl = ttl
	f.sets++
	return nil
}

func (f *fakeCache) InvalidateCatalog(context.Context) error {
	f.products = nil
	f.invalidations++
	return nil
}

type fakeIdempotency struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeIdempotency) SetIdempotencyKey(_ context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	f.values[key] = raw
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeIdempotency) GetIdempotencyKey(_ context.Context, key string, out interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return redisclient.ErrCacheMiss
	}
	return json.Unmarshal(raw, out)
}

type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]string
	taken []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]string{}}
}

func (f *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.held[key]; ok {
		return "", redisclient.ErrLockHeld
	}
	f.held[key] = "token-" + key
	f.taken = append(f.taken, key)
	return f.held[key], nil
}

func (f *fakeLocker) ReleaseLock(_ context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] == token {
		delete(f.held, key)
	}
	return nil
}

type fakeStore struct {
	settlements map[string]*models.Settlement
	items       map[string][]models.SettlementItem
	processed   map[string]bool
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settlements: map[string]*models.Settlement{},
		items:       map[string][]models.SettlementItem{},
		processed:   map[string]bool{},
	}
}

func (f *fakeStore) CreateSettlement(_ context.Context, s *models.Settlement, items []models.SettlementItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	stored := *s
	f.settlements[s.ID] = &stored
	f.items[s.ID] = append([]models.SettlementItem(nil), items...)
	return nil
}

func (f *fakeStore) GetSettlement(_ context.Context, id string) (*models.Settlement, error) {
	s, ok := f.settlements[id]
	if !ok {
		return nil, store.ErrSettlementNotFound
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) GetSettlementBySessionID(_ context.Context, sessionID string) (*models.Settlement, error) {
	for _, s := range f.settlements {
		if s.SessionID == sessionID {
			out := *s
			return &out, nil
		}
	}
	return nil, store.ErrSettlementNotFound
}

func (f *fakeStore) GetSettlementItems(_ context.Context, settlementID string) ([]models.SettlementItem, error) {
	return append([]models.SettlementItem(nil), f.items[settlementID]...), nil
}

func (f *fakeStore) ListSettlementsByOwner(_ context.Context, ownerID string) ([]models.Settlement, error) {
	var out []models.Settlement
	for _, s := range f.settlements {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) TransitionSettlement(_ context.Context, id, from, to, reason string) (bool, error) {
	s, ok := f.settlements[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.FailureReason = reason
	return true, nil
}

func (f *fakeStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.processed[eventID] = true
	return nil
}

type fakePublisher struct {
	prepared  []*models.SettlementPreparedEvent
	completed []*models.SettlementCompletedEvent
	failed    []*models.SettlementFailedEvent
}

func (f *fakePublisher) PublishSettlementPrepared(_ context.Context, e *models.SettlementPreparedEvent) error {
	f.prepared = append(f.prepared, e)
	return nil
}

func (f *fakePublisher) PublishSettlementCompleted(_ context.Context, e *models.SettlementCompletedEvent) error {
	f.completed = append(f.completed, e)
	return nil
}

func (f *fakePublisher) PublishSettlementFailed(_ context.Context, e *models.SettlementFailedEvent) error {
	f.failed = append(f.failed, e)
	return nil
}

type fakeGateway struct {
	requests   []checkout.SettlementRequest
	references []string
	err        error
}

func (f *fakeGateway) CreateSession(_ context.Context, reference string, req checkout.SettlementRequest) (checkout.Session, error) {
	f.references = append(f.references, reference)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return checkout.Session{}, f.err
	}
	return checkout.Session{ID: "cs_" + reference, URL: "https://pay.example/" + reference}, nil
}
