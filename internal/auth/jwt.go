package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrRevocationDisabled = errors.New("token revocation disabled")
)

type Claims struct {
	Role model.Role `json:"role"`
	// IssuedAtMicros carries iat at microsecond precision for revocation checks.
	IssuedAtMicros int64 `json:"iat_us,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// IssuedAtTime prefers the microsecond claim and falls back to iat.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAtMicros > 0 {
		return time.UnixMicro(c.IssuedAtMicros).UTC()
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// Issuer signs and verifies session tokens with a shared HS256 secret.
type Issuer struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	now         func() time.Time
	revocations RevocationList
}

type Option func(*Issuer)

func WithNowFunc(fn func() time.Time) Option {
	return func(i *Issuer) {
		i.now = fn
	}
}

// WithRevocationList makes Verify consult list for every token.
func WithRevocationList(list RevocationList) Option {
	return func(i *Issuer) {
		i.revocations = list
	}
}

func NewIssuer(secret, issuer string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	i := &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Issuer) Issue(subject string, role model.Role) (string, error) {
	if subject == "" || !role.Valid() {
		return "", fmt.Errorf("issue token: invalid subject or role")
	}
	now := i.now().UTC()
	claims := Claims{
		Role:           role,
		IssuedAtMicros: now.UnixMicro(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if i.revocations != nil {
		revoked, err := i.revocations.IsRevoked(ctx, claims.Subject, claims.IssuedAtTime())
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// RevokeUser invalidates every token issued to subject up to now.
func (i *Issuer) RevokeUser(ctx context.Context, subject string) error {
	if i.revocations == nil {
		return ErrRevocationDisabled
	}
	return i.revocations.RevokeAll(ctx, subject, i.now().UTC())
}

func (i *Issuer) RevocationEnabled() bool {
	return i.revocations != nil
}
