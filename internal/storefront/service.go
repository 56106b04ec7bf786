package storefront

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/promotions"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
)

type activePromotions interface {
	Active() []promotions.Promotion
}

// Service hands out cart facades per shopper session.
type Service interface {
	// WithCart loads the session's cart and runs fn while holding that
	// session's lock, so concurrent requests for one cart apply in order.
	WithCart(ctx context.Context, session string, fn func(*Facade) error) error
	ActivePromotions() []promotions.Promotion
}

// Config wires a Service.
type Config struct {
	Storage    cart.Storage
	StorageKey string
	Index      *promotions.Index
	Dependencies
}

type service struct {
	storage    cart.Storage
	storageKey string
	index      activePromotions
	deps       Dependencies
	locks      *sessionLocks
}

// NewService builds a storefront service backed by the provided stack.
func NewService(cfg Config) (Service, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("promotion index required")
	}
	key := strings.TrimSpace(cfg.StorageKey)
	if key == "" {
		return nil, fmt.Errorf("cart storage key required")
	}

	deps := cfg.Dependencies
	if deps.Promotions == nil {
		deps.Promotions = cfg.Index
	}
	return &service{
		storage:    cfg.Storage,
		storageKey: key,
		index:      cfg.Index,
		deps:       deps,
		locks:      newSessionLocks(),
	}, nil
}

func (s *service) WithCart(ctx context.Context, session string, fn func(*Facade) error) error {
	session = strings.TrimSpace(session)
	if session == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}

	unlock := s.locks.lock(session)
	defer unlock()

	store, err := cart.Open(ctx, s.storage, cart.Key{Session: session, Name: s.storageKey},
		cart.WithFallbackName(s.deps.FallbackName),
		cart.WithLogger(s.deps.Logger),
		cart.WithMetrics(s.deps.Metrics),
	)
	if err != nil {
		return err
	}
	return fn(NewFacade(store, s.deps))
}

func (s *service) ActivePromotions() []promotions.Promotion {
	return s.index.Active()
}

// sessionLocks is a keyed mutex; entries are dropped once nobody holds or
// waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &sessionLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
