package eventsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Subscriber blocks delivering changes until ctx ends or the channel breaks.
// onReady runs once the subscription is live and before any change is delivered.
type Subscriber interface {
	Listen(ctx context.Context, onReady func(), onChange func(Change)) error
}

// DialFunc opens a Subscriber and returns a func releasing whatever it opened.
type DialFunc func(ctx context.Context) (Subscriber, func(), error)

// LazySubscriber connects on every Listen. An unreachable feed surfaces as a
// Listen error, so the bridge still loads directly and retries with backoff.
type LazySubscriber struct {
	dial DialFunc
}

func NewLazySubscriber(dial DialFunc) *LazySubscriber {
	return &LazySubscriber{dial: dial}
}

func (l *LazySubscriber) Listen(ctx context.Context, onReady func(), onChange func(Change)) error {
	sub, closeFn, err := l.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect change feed: %w", err)
	}
	defer closeFn()
	return sub.Listen(ctx, onReady, onChange)
}

type PostgresListener struct {
	pool    *pgxpool.Pool
	channel string
	log     zerolog.Logger
}

func NewPostgresListener(pool *pgxpool.Pool, channel string, logger zerolog.Logger) *PostgresListener {
	return &PostgresListener{pool: pool, channel: channel, log: logger}
}

func (l *PostgresListener) Listen(ctx context.Context, onReady func(), onChange func(Change)) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// A LISTENing connection must not go back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	onReady()

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		change, err := DecodeChange([]byte(notification.Payload))
		if err != nil {
			l.log.Warn().Err(err).Msg("dropping malformed change notification")
			continue
		}
		onChange(change)
	}
}

type RedisSubscriber struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func NewRedisSubscriber(client *redis.Client, channel string, logger zerolog.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, channel: channel, log: logger}
}

func (s *RedisSubscriber) Listen(ctx context.Context, onReady func(), onChange func(Change)) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	onReady()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			change, err := DecodeChange([]byte(msg.Payload))
			if err != nil {
				s.log.Warn().Err(err).Msg("dropping malformed change notification")
				continue
			}
			onChange(change)
		}
	}
}
