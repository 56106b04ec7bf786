package promotions

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/metrics"
)

// SnapshotEventType tags promotion snapshot messages on the topic.
const SnapshotEventType = "promotions.snapshot"

// SnapshotVersionAttribute carries the publisher's clock in Unix nanoseconds.
// Messages without it are ordered by their server publish time.
const SnapshotVersionAttribute = "snapshot_version"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// PubSubFeed consumes full promotion snapshots published on a Pub/Sub topic.
type PubSubFeed struct {
	subscription receiver
	logg         *logger.Logger
	metrics      *metrics.Storefront

	// Receive runs callbacks concurrently and out of order. applyMu makes
	// the version check and the update one step.
	applyMu sync.Mutex
	applied int64
}

func NewPubSubFeed(subscription *pubsub.Subscriber, logg *logger.Logger, m *metrics.Storefront) (*PubSubFeed, error) {
	if subscription == nil {
		return nil, fmt.Errorf("promotions subscription required")
	}
	return &PubSubFeed{subscription: subscription, logg: logg, metrics: m}, nil
}

func (f *PubSubFeed) Name() string { return "pubsub" }

// Subscribe blocks in Receive until ctx is cancelled.
func (f *PubSubFeed) Subscribe(ctx context.Context, onUpdate func([]Promotion)) error {
	return f.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		f.handle(ctx, msg, onUpdate)
		msg.Ack()
	})
}

// handle applies a snapshot message. Undecodable messages are acked since a
// redelivery would fail the same way; the index keeps its previous state.
func (f *PubSubFeed) handle(ctx context.Context, msg *pubsub.Message, onUpdate func([]Promotion)) {
	logCtx := f.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	if et := msg.Attributes["event_type"]; et != "" && et != SnapshotEventType {
		f.logg.Info(logCtx, "skipping non-snapshot promotion event")
		return
	}

	promos, err := DecodeSnapshot(msg.Data)
	if err != nil {
		f.metrics.IndexRefreshFailed(f.Name())
		f.logg.Warn(f.logg.WithField(logCtx, "error", err.Error()), "promotions.snapshot.decode_failed")
		return
	}

	version := snapshotVersion(msg)
	f.applyMu.Lock()
	defer f.applyMu.Unlock()
	if version != 0 && version <= f.applied {
		f.logg.Info(f.logg.WithFields(logCtx, map[string]any{
			"version": version,
			"applied": f.applied,
		}), "promotions.snapshot.stale")
		return
	}
	if version != 0 {
		f.applied = version
	}
	onUpdate(promos)
}

// snapshotVersion orders snapshots, or returns 0 when the message carries
// nothing to order by.
func snapshotVersion(msg *pubsub.Message) int64 {
	if raw := msg.Attributes[SnapshotVersionAttribute]; raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			return v
		}
	}
	if !msg.PublishTime.IsZero() {
		return msg.PublishTime.UnixNano()
	}
	return 0
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// SnapshotPublisher broadcasts full promotion listings to the feed topic.
type SnapshotPublisher struct {
	topic publisher
	now   func() time.Time
}

func NewSnapshotPublisher(topic *pubsub.Publisher) (*SnapshotPublisher, error) {
	if topic == nil {
		return nil, fmt.Errorf("promotions topic required")
	}
	return &SnapshotPublisher{topic: topic, now: time.Now}, nil
}

// Publish sends promos and waits for the server ack.
func (p *SnapshotPublisher) Publish(ctx context.Context, promos []Promotion) (string, error) {
	msg, err := snapshotMessage(promos, p.now())
	if err != nil {
		return "", err
	}
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish promotion snapshot: %w", err)
	}
	return id, nil
}

func snapshotMessage(promos []Promotion, at time.Time) (*pubsub.Message, error) {
	if promos == nil {
		promos = []Promotion{}
	}
	data, err := json.Marshal(promos)
	if err != nil {
		return nil, fmt.Errorf("encode promotion snapshot: %w", err)
	}
	return &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type":             SnapshotEventType,
			SnapshotVersionAttribute: strconv.FormatInt(at.UnixNano(), 10),
		},
	}, nil
}
