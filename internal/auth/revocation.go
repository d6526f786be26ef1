package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records, per subject, the instant before which tokens are no longer accepted.
type RevocationList interface {
	RevokeAll(ctx context.Context, subject string, at time.Time) error
	IsRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error)
}

type RedisRevocationList struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationList keeps each entry for ttl, after which any token it covers has expired anyway.
func NewRedisRevocationList(client *redis.Client, ttl time.Duration) *RedisRevocationList {
	return &RedisRevocationList{client: client, ttl: ttl}
}

func (l *RedisRevocationList) RevokeAll(ctx context.Context, subject string, at time.Time) error {
	return l.client.Set(ctx, revocationKey(subject), strconv.FormatInt(at.UnixMicro(), 10), l.ttl).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	value, err := l.client.Get(ctx, revocationKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	cutoff, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, err
	}
	// Cutoff is in microseconds; a token minted at the same instant is revoked.
	return issuedAt.UnixMicro() <= cutoff, nil
}

func revocationKey(subject string) string {
	return "campus:revoked:" + subject
}
