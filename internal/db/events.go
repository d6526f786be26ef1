package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

const eventColumns = `id, title, datetime, mention_date, module, kind, created_by, created_at`

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	var kind string
	err := row.Scan(&e.ID, &e.Title, &e.Datetime, &e.MentionDate, &e.Module, &kind, &e.CreatedBy, &e.CreatedAt)
	e.Kind = model.EventKind(kind)
	return e, translate(err)
}

func (q *Queries) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY datetime ASC, id ASC
	`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, translate(rows.Err())
}

func (q *Queries) InsertEvent(ctx context.Context, fields model.EventFields, createdBy *string) (model.Event, error) {
	return scanEvent(q.db.QueryRow(ctx, `
		INSERT INTO events (title, datetime, mention_date, module, kind, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+eventColumns+`
	`, fields.Title, fields.Datetime, fields.MentionDate, fields.Module, string(fields.Kind), createdBy))
}

// UpdateEvent returns ErrNotFound when no event has id.
func (q *Queries) UpdateEvent(ctx context.Context, id string, fields model.EventFields) (model.Event, error) {
	return scanEvent(q.db.QueryRow(ctx, `
		UPDATE events
		SET title = $2, datetime = $3, mention_date = $4, module = $5, kind = $6
		WHERE id = $1
		RETURNING `+eventColumns+`
	`, id, fields.Title, fields.Datetime, fields.MentionDate, fields.Module, string(fields.Kind)))
}

func (q *Queries) DeleteEvent(ctx context.Context, id string) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteEventsBefore removes every event strictly earlier than cutoff and returns their ids.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := q.db.Query(ctx, `DELETE FROM events WHERE datetime < $1 RETURNING id`, cutoff)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err)
		}
		ids = append(ids, id)
	}
	return ids, translate(rows.Err())
}
