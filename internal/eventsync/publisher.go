package eventsync

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Change) error { return nil }

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresPublisher sends changes with pg_notify so LISTEN clients receive them.
type PostgresPublisher struct {
	db      Execer
	channel string
}

func NewPostgresPublisher(db Execer, channel string) *PostgresPublisher {
	return &PostgresPublisher{db: db, channel: channel}
}

func (p *PostgresPublisher) Publish(ctx context.Context, change Change) error {
	payload, err := EncodeChange(change)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `SELECT pg_notify($1, $2)`, p.channel, string(payload))
	return err
}

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, change Change) error {
	payload, err := EncodeChange(change)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}
