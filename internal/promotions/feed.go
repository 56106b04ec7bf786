package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/metrics"
)

// Source lists every promotion in the promotion store, active or not.
type Source interface {
	List(ctx context.Context) ([]Promotion, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context) ([]Promotion, error)

func (f SourceFunc) List(ctx context.Context) ([]Promotion, error) {
	return f(ctx)
}

// Feed delivers promotion snapshots until ctx is cancelled. Each call of
// onUpdate carries the full listing, not a delta.
type Feed interface {
	Name() string
	Subscribe(ctx context.Context, onUpdate func([]Promotion)) error
}

// PollingFeed re-reads a Source on a fixed interval.
type PollingFeed struct {
	source   Source
	interval time.Duration
	logg     *logger.Logger
	metrics  *metrics.Storefront
}

func NewPollingFeed(source Source, interval time.Duration, logg *logger.Logger, m *metrics.Storefront) (*PollingFeed, error) {
	if source == nil {
		return nil, fmt.Errorf("promotion source required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	return &PollingFeed{source: source, interval: interval, logg: logg, metrics: m}, nil
}

func (f *PollingFeed) Name() string { return "poll" }

// Subscribe fetches immediately, then on every tick. Fetch failures are
// logged and the previous snapshot stays in effect.
func (f *PollingFeed) Subscribe(ctx context.Context, onUpdate func([]Promotion)) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		f.poll(ctx, onUpdate)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (f *PollingFeed) poll(ctx context.Context, onUpdate func([]Promotion)) {
	start := time.Now()
	promos, err := f.source.List(ctx)
	f.metrics.ObserveFeedFetch(f.Name(), time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		f.metrics.IndexRefreshFailed(f.Name())
		f.logg.Error(ctx, "promotions.poll.failed", err)
		return
	}
	onUpdate(promos)
}

// Sync subscribes index to feed and blocks until ctx is cancelled.
func Sync(ctx context.Context, feed Feed, index *Index, logg *logger.Logger, m *metrics.Storefront) error {
	if feed == nil || index == nil {
		return fmt.Errorf("feed and index required")
	}
	ctx = logg.WithField(ctx, "feed", feed.Name())
	logg.Info(ctx, "promotions.sync.started")

	err := feed.Subscribe(ctx, func(promos []Promotion) {
		n := index.Refresh(promos)
		m.IndexRefreshed(feed.Name(), n)
		logg.Debug(logg.WithFields(ctx, map[string]any{"received": len(promos), "indexed": n}), "promotions.index.refreshed")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("promotion feed %s: %w", feed.Name(), err)
	}
	logg.Info(ctx, "promotions.sync.stopped")
	return nil
}
