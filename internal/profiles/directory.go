// Package profiles is the directory of user profiles and their roles.
package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Learn-Trical-23/EE-24/internal/apperr"
	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// ErrInvalidRole is rendered to clients verbatim as {"error":"Invalid role"}.
var ErrInvalidRole = apperr.Invalid("Invalid role", "role must be member, admin or super_admin")

type Store interface {
	GetProfileByEmail(ctx context.Context, email string) (model.Profile, error)
	UpsertProfile(ctx context.Context, email, fullName string, role model.Role) (model.Profile, error)
	SetProfileRole(ctx context.Context, id string, role model.Role) (bool, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	ListProfilesByRole(ctx context.Context, role model.Role) ([]model.Profile, error)
}

type Directory struct {
	store Store
	log   zerolog.Logger
}

func NewDirectory(store Store, logger zerolog.Logger) *Directory {
	return &Directory{store: store, log: logger}
}

// FindByEmail returns nil when no profile has email.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	profile, err := d.store.GetProfileByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "find profile")
	}
	return &profile, nil
}

// Provision creates a member profile named after the email's local part as typed.
// Only the stored email is lowercased. Concurrent calls for the same email
// converge on a single row.
func (d *Directory) Provision(ctx context.Context, email string) (model.Profile, error) {
	name := model.DisplayNameFromEmail(strings.TrimSpace(email))
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return model.Profile{}, err
	}
	profile, err := d.store.UpsertProfile(ctx, email, name, model.RoleMember)
	if err != nil {
		return model.Profile{}, apperr.Storage(err, "provision profile")
	}
	return profile, nil
}

// Login returns the profile for email, provisioning one on first sight.
func (d *Directory) Login(ctx context.Context, email string) (model.Profile, error) {
	if err := validateEmail(normalizeEmail(email)); err != nil {
		return model.Profile{}, err
	}
	existing, err := d.FindByEmail(ctx, email)
	if err != nil {
		return model.Profile{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	profile, err := d.Provision(ctx, email)
	if err != nil {
		return model.Profile{}, err
	}
	d.log.Info().Str("user_id", profile.ID).Msg("provisioned profile on first login")
	return profile, nil
}

// SetRole changes a profile's role. Unknown users are a no-op.
func (d *Directory) SetRole(ctx context.Context, userID, role string) error {
	parsed, ok := model.ParseRole(role)
	if !ok {
		return ErrInvalidRole
	}
	updated, err := d.store.SetProfileRole(ctx, userID, parsed)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return apperr.Storage(err, "set role")
	}
	if updated {
		d.log.Info().Str("user_id", userID).Str("role", string(parsed)).Msg("role changed")
	}
	return nil
}

// List returns every profile, newest first.
func (d *Directory) List(ctx context.Context) ([]model.Profile, error) {
	profiles, err := d.store.ListProfiles(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list profiles")
	}
	return profiles, nil
}

func (d *Directory) ListAdmins(ctx context.Context) ([]model.Profile, error) {
	profiles, err := d.store.ListProfilesByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, apperr.Storage(err, "list admins")
	}
	return profiles, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return apperr.Invalid("invalid_email", "email must look like name@domain")
	}
	return nil
}
