package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

const profileColumns = `id, full_name, email, role, created_at`

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	var role string
	err := row.Scan(&p.ID, &p.FullName, &p.Email, &role, &p.CreatedAt)
	p.Role = model.Role(role)
	return p, translate(err)
}

func collectProfiles(rows pgx.Rows, err error) ([]model.Profile, error) {
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	profiles := make([]model.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, translate(rows.Err())
}

func (q *Queries) GetProfileByEmail(ctx context.Context, email string) (model.Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE email = $1
	`, email))
}

func (q *Queries) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id))
}

// UpsertProfile inserts a profile or returns the existing row for email untouched.
func (q *Queries) UpsertProfile(ctx context.Context, email, fullName string, role model.Role) (model.Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, `
		INSERT INTO profiles (full_name, email, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+profileColumns+`
	`, fullName, email, string(role)))
}

func (q *Queries) SetProfileRole(ctx context.Context, id string, role model.Role) (bool, error) {
	tag, err := q.db.Exec(ctx, `UPDATE profiles SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

// PromoteToAdmin never demotes a super_admin.
func (q *Queries) PromoteToAdmin(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE profiles SET role = 'admin'
		WHERE id = $1 AND role <> 'super_admin'
	`, id)
	return translate(err)
}

// DemoteAdmin only touches profiles currently holding the admin role.
func (q *Queries) DemoteAdmin(ctx context.Context, id string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE profiles SET role = 'member'
		WHERE id = $1 AND role = 'admin'
	`, id)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return collectProfiles(q.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		ORDER BY created_at DESC
	`))
}

func (q *Queries) ListProfilesByRole(ctx context.Context, role model.Role) ([]model.Profile, error) {
	return collectProfiles(q.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE role = $1
		ORDER BY created_at DESC
	`, string(role)))
}
