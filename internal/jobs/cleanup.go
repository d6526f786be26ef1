package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Learn-Trical-23/EE-24/internal/eventsync"
	"github.com/Learn-Trical-23/EE-24/internal/metrics"
)

type EventPurger interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Status is an immutable snapshot of the last cleanup tick.
// LastRemoved is nil when that tick failed.
type Status struct {
	LastRun     *time.Time `json:"lastRun"`
	LastRemoved *int       `json:"lastRemoved"`
}

// Stale reports whether the job has not run within maxAge of now.
func (s Status) Stale(now time.Time, maxAge time.Duration) bool {
	return s.LastRun == nil || now.Sub(*s.LastRun) > maxAge
}

// Cleanup deletes events whose datetime has passed.
type Cleanup struct {
	store     EventPurger
	publisher eventsync.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time
	onRun     func(Status)

	status atomic.Pointer[Status]
}

type CleanupOption func(*Cleanup)

func WithNowFunc(fn func() time.Time) CleanupOption {
	return func(c *Cleanup) {
		c.now = fn
	}
}

// WithOnRun registers fn to receive the snapshot recorded by every tick.
func WithOnRun(fn func(Status)) CleanupOption {
	return func(c *Cleanup) {
		c.onRun = fn
	}
}

func NewCleanup(store EventPurger, publisher eventsync.Publisher, m *metrics.Metrics, logger zerolog.Logger, interval, timeout time.Duration, opts ...CleanupOption) *Cleanup {
	if publisher == nil {
		publisher = eventsync.NopPublisher{}
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Cleanup{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       logger,
		interval:  interval,
		timeout:   timeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.status.Store(&Status{})
	return c
}

// Start runs one tick immediately, then one per interval until ctx ends.
func (c *Cleanup) Start(ctx context.Context) {
	go func() {
		c.RunOnce(ctx)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunOnce(ctx)
			}
		}
	}()
}

func (c *Cleanup) Status() Status {
	return *c.status.Load()
}

// RunOnce performs one tick and returns the recorded status. It never panics or fails:
// errors are logged and recorded as a nil LastRemoved.
func (c *Cleanup) RunOnce(ctx context.Context) (status Status) {
	startedAt := c.now().UTC()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("panic", fmt.Sprint(r)).Msg("cleanup tick panicked")
			c.metrics.CleanupRuns.WithLabelValues("error").Inc()
			status = c.record(startedAt, nil)
		}
	}()

	tickCtx, cancel := context.WithTimeout(ctx, c.timeout)
	removedIDs, err := c.store.DeleteEventsBefore(tickCtx, startedAt)
	cancel()
	if err != nil {
		c.log.Error().Err(err).Msg("cleanup tick failed")
		c.metrics.CleanupRuns.WithLabelValues("error").Inc()
		return c.record(startedAt, nil)
	}

	removed := len(removedIDs)
	c.metrics.CleanupRuns.WithLabelValues("ok").Inc()
	c.metrics.CleanupRemoved.Add(float64(removed))
	status = c.record(startedAt, &removed)
	if removed > 0 {
		c.log.Info().Int("removed", removed).Time("cutoff", startedAt).Msg("removed past events")
	}

	for _, id := range removedIDs {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		err := c.publisher.Publish(pubCtx, eventsync.DeleteChange(id))
		cancel()
		if err != nil {
			c.metrics.ChangePublishFailures.Inc()
			c.log.Warn().Err(err).Str("event_id", id).Msg("publish cleanup delete failed")
			continue
		}
		c.metrics.ChangesPublished.WithLabelValues(string(eventsync.ChangeDelete)).Inc()
	}
	return status
}

// record swaps in a new snapshot. LastRun only moves forward: a tick that started
// before the currently recorded one is stamped just after it.
func (c *Cleanup) record(at time.Time, removed *int) Status {
	for {
		prev := c.status.Load()
		stamp := at
		if prev.LastRun != nil && !stamp.After(*prev.LastRun) {
			stamp = prev.LastRun.Add(time.Nanosecond)
		}
		next := &Status{LastRun: &stamp, LastRemoved: removed}
		if c.status.CompareAndSwap(prev, next) {
			c.metrics.CleanupLastRun.Set(float64(stamp.UnixNano()) / 1e9)
			if c.onRun != nil {
				c.onRun(*next)
			}
			return *next
		}
	}
}
