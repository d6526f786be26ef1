// Package events manages calendar events and publishes every write as a change notification.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Learn-Trical-23/EE-24/internal/apperr"
	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/eventsync"
	"github.com/Learn-Trical-23/EE-24/internal/metrics"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

const publishTimeout = 2 * time.Second

type Store interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	InsertEvent(ctx context.Context, fields model.EventFields, createdBy *string) (model.Event, error)
	UpdateEvent(ctx context.Context, id string, fields model.EventFields) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) (bool, error)
}

type Service struct {
	store     Store
	publisher eventsync.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
	degrade   bool
}

type Option func(*Service)

// WithDegrade controls whether List swallows storage failures. Enabled by default.
func WithDegrade(enabled bool) Option {
	return func(s *Service) {
		s.degrade = enabled
	}
}

func NewService(store Store, publisher eventsync.Publisher, m *metrics.Metrics, logger zerolog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = eventsync.NopPublisher{}
	}
	s := &Service{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       logger,
		degrade:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns events by datetime ascending. When storage fails and degradation is on,
// it returns an empty list with degraded set instead of an error.
func (s *Service) List(ctx context.Context) (events []model.Event, degraded bool, err error) {
	events, err = s.store.ListEvents(ctx)
	if err == nil {
		return events, false, nil
	}
	s.metrics.EventsListFailures.Inc()
	s.log.Error().Err(err).Bool("degraded", s.degrade).Msg("list events failed")
	if s.degrade {
		return []model.Event{}, true, nil
	}
	return nil, false, apperr.Storage(err, "list events")
}

func (s *Service) Create(ctx context.Context, in Input, createdBy string) (model.Event, error) {
	fields, err := in.Fields()
	if err != nil {
		return model.Event{}, err
	}
	var author *string
	if createdBy != "" {
		author = &createdBy
	}
	event, err := s.store.InsertEvent(ctx, fields, author)
	if errors.Is(err, db.ErrMissingReference) {
		// The author's profile is gone; keep the event unattributed.
		event, err = s.store.InsertEvent(ctx, fields, nil)
	}
	if err != nil {
		return model.Event{}, apperr.Storage(err, "create event")
	}
	s.publish(ctx, eventsync.InsertChange(event))
	return event, nil
}

// Update rewrites an event. It returns nil without error when id is unknown.
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Event, error) {
	fields, err := in.Fields()
	if err != nil {
		return nil, err
	}
	event, err := s.store.UpdateEvent(ctx, id, fields)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "update event")
	}
	s.publish(ctx, eventsync.UpdateChange(event))
	return &event, nil
}

// Delete removes an event. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteEvent(ctx, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return apperr.Storage(err, "delete event")
	}
	if deleted {
		s.publish(ctx, eventsync.DeleteChange(id))
	}
	return nil
}

// publish is best-effort: the write has already committed.
func (s *Service) publish(ctx context.Context, change eventsync.Change) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.metrics.ChangePublishFailures.Inc()
		s.log.Warn().Err(err).Str("type", string(change.Type)).Str("event_id", change.RowID()).Msg("publish event change failed")
		return
	}
	s.metrics.ChangesPublished.WithLabelValues(string(change.Type)).Inc()
}
