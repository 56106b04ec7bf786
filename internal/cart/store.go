package cart

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/metrics"
)

// Store owns the persisted line items of one cart. Every mutation is applied
// in memory and then written through to Storage while holding the lock, so
// a mutation including its write completes before the next one starts.
// Mutations only fail on storage errors, and the in-memory change stands.
type Store struct {
	mu           sync.Mutex
	items        []LineItem
	storage      Storage
	key          Key
	fallbackName string
	logg         *logger.Logger
	metrics      *metrics.Storefront
}

// Option configures a Store.
type Option func(*Store)

func WithFallbackName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.fallbackName = name
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) { s.logg = logg }
}

func WithMetrics(m *metrics.Storefront) Option {
	return func(s *Store) { s.metrics = m }
}

// Open loads the cart stored under key. A missing or corrupt record yields an
// empty cart; only a storage failure is returned as an error.
func Open(ctx context.Context, storage Storage, key Key, opts ...Option) (*Store, error) {
	s := &Store{
		storage:      storage,
		key:          key,
		fallbackName: DefaultFallbackName,
	}
	for _, opt := range opts {
		opt(s)
	}

	payload, err := storage.Load(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return s, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	items, err := decode(payload, s.fallbackName)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cart_key": key.String(), "error": err.Error()}), "cart.load.corrupt")
		return s, nil
	}
	s.items = items
	return s, nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) snapshot() []LineItem {
	out := make([]LineItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.clone()
	}
	return out
}

// Add merges item into an existing (name, size) entry by adding its quantity,
// or appends it with whatever promotion snapshot the caller attached.
func (s *Store) Add(ctx context.Context, item LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item = normalize(item.clone(), s.fallbackName)
	for i := range s.items {
		if s.items[i].sameEntry(item.Name, item.Size) {
			s.items[i].Quantity += item.Quantity
			return s.persist(ctx, "add")
		}
	}
	s.items = append(s.items, item)
	return s.persist(ctx, "add")
}

// Remove drops every entry matching sel.
func (s *Store) Remove(ctx context.Context, sel Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]LineItem, 0, len(s.items))
	for _, item := range s.items {
		if !sel.Matches(item) {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(s.items) {
		return nil
	}
	s.items = kept
	return s.persist(ctx, "remove")
}

// SetQuantity sets the quantity of matching entries, never below one.
func (s *Store) SetQuantity(ctx context.Context, sel Selector, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		quantity = 1
	}
	changed := false
	for i := range s.items {
		if sel.Matches(s.items[i]) && s.items[i].Quantity != quantity {
			s.items[i].Quantity = quantity
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persist(ctx, "set_quantity")
}

// Increase adds one unit to the entry at index. Out of range is a no-op.
func (s *Store) Increase(ctx context.Context, index int) error {
	return s.step(ctx, index, 1, "increase")
}

// Decrease removes one unit from the entry at index, stopping at one.
func (s *Store) Decrease(ctx context.Context, index int) error {
	return s.step(ctx, index, -1, "decrease")
}

func (s *Store) step(ctx context.Context, index, delta int, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return nil
	}
	next := s.items[index].Quantity + delta
	if next < 1 {
		next = 1
	}
	if next == s.items[index].Quantity {
		return nil
	}
	s.items[index].Quantity = next
	return s.persist(ctx, op)
}

// Clear empties the cart and removes its stored record. Clearing an empty
// cart does not touch storage.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil
	}
	s.items = nil
	s.metrics.CartMutation("clear")
	if err := s.storage.Remove(ctx, s.key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart")
	}
	return nil
}

func (s *Store) persist(ctx context.Context, op string) error {
	s.metrics.CartMutation(op)

	payload, clamped, err := encode(s.items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if clamped {
		s.logg.Warn(s.logg.WithField(ctx, "cart_key", s.key.String()), "cart.persist.non_finite_price_written_as_zero")
	}
	if err := s.storage.Save(ctx, s.key, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}
