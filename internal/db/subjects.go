package db

import (
	"context"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

func (q *Queries) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := q.db.Query(ctx, `SELECT id, code, name FROM subjects ORDER BY code`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	subjects := make([]model.Subject, 0)
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.Name); err != nil {
			return nil, translate(err)
		}
		subjects = append(subjects, s)
	}
	return subjects, translate(rows.Err())
}

func (q *Queries) GetSubject(ctx context.Context, id string) (model.Subject, error) {
	var s model.Subject
	err := q.db.QueryRow(ctx, `SELECT id, code, name FROM subjects WHERE id = $1`, id).Scan(&s.ID, &s.Code, &s.Name)
	return s, translate(err)
}

// InsertSubject returns ErrDuplicate when code is taken.
func (q *Queries) InsertSubject(ctx context.Context, code, name string) (model.Subject, error) {
	var s model.Subject
	err := q.db.QueryRow(ctx, `
		INSERT INTO subjects (code, name)
		VALUES ($1, $2)
		RETURNING id, code, name
	`, code, name).Scan(&s.ID, &s.Code, &s.Name)
	return s, translate(err)
}
