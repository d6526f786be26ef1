package eventsync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// Bridge keeps a Mirror current: a direct load first, then live changes when the subscription is up.
// The direct load never waits on the subscription.
type Bridge struct {
	loader     Loader
	subscriber Subscriber
	mirror     *Mirror
	log        zerolog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
	onUpdate   func([]model.Event)
}

type BridgeOption func(*Bridge)

func WithBackoff(initial, limit time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.minBackoff, b.maxBackoff = initial, limit
	}
}

// WithOnUpdate registers a callback receiving the list after every refresh or change.
func WithOnUpdate(fn func([]model.Event)) BridgeOption {
	return func(b *Bridge) {
		b.onUpdate = fn
	}
}

func NewBridge(loader Loader, subscriber Subscriber, mirror *Mirror, logger zerolog.Logger, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		loader:     loader,
		subscriber: subscriber,
		mirror:     mirror,
		log:        logger,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Mirror() *Mirror {
	return b.mirror
}

// Refresh replaces the mirror with a direct load. On failure the mirror keeps its previous contents.
func (b *Bridge) Refresh(ctx context.Context) error {
	events, err := b.loader.Load(ctx)
	if err != nil {
		return err
	}
	b.mirror.Replace(events)
	b.notify()
	return nil
}

func (b *Bridge) Apply(change Change) {
	b.mirror.Apply(change)
	b.notify()
}

// Run loads the list, then follows the subscription until ctx ends, reconnecting with backoff.
// Every (re)connect triggers a fresh load so changes missed while disconnected are not lost.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Refresh(ctx); err != nil {
		b.log.Warn().Err(err).Msg("initial event load failed")
	}
	if b.subscriber == nil {
		<-ctx.Done()
		return nil
	}

	backoff := b.minBackoff
	for {
		err := b.subscriber.Listen(ctx, func() {
			backoff = b.minBackoff
			b.log.Info().Msg("event subscription live")
			if err := b.Refresh(ctx); err != nil {
				b.log.Warn().Err(err).Msg("event reload after subscribe failed")
			}
		}, b.Apply)
		if ctx.Err() != nil {
			return nil
		}
		b.log.Warn().Err(err).Dur("retry_in", backoff).Msg("event subscription lost")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, b.maxBackoff)
	}
}

func (b *Bridge) notify() {
	if b.onUpdate != nil {
		b.onUpdate(b.mirror.Snapshot())
	}
}
