package promotions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/redis"
)

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	PromotionSnapshotKey() string
}

// CachedFeed wraps a Feed with a Redis copy of the last snapshot so a fresh
// process can serve lookups before the first upstream update arrives.
type CachedFeed struct {
	inner Feed
	store snapshotStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCachedFeed(inner Feed, store *redis.Client, ttl time.Duration, logg *logger.Logger) (*CachedFeed, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner feed required")
	}
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &CachedFeed{inner: inner, store: store, ttl: ttl, logg: logg}, nil
}

func (f *CachedFeed) Name() string { return f.inner.Name() }

func (f *CachedFeed) Subscribe(ctx context.Context, onUpdate func([]Promotion)) error {
	if cached, ok := f.load(ctx); ok {
		onUpdate(cached)
	}
	return f.inner.Subscribe(ctx, func(promos []Promotion) {
		onUpdate(promos)
		f.save(ctx, promos)
	})
}

func (f *CachedFeed) load(ctx context.Context) ([]Promotion, bool) {
	raw, err := f.store.Get(ctx, f.store.PromotionSnapshotKey())
	if err != nil {
		if !redis.IsMissing(err) {
			f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "promotions.cache.read_failed")
		}
		return nil, false
	}
	promos, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "promotions.cache.corrupt")
		return nil, false
	}
	return promos, true
}

func (f *CachedFeed) save(ctx context.Context, promos []Promotion) {
	data, err := json.Marshal(promos)
	if err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "promotions.cache.encode_failed")
		return
	}
	if err := f.store.Set(ctx, f.store.PromotionSnapshotKey(), string(data), f.ttl); err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "promotions.cache.write_failed")
	}
}
