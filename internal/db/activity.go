package db

import (
	"context"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// LatestActivity merges material uploads, edits and deletes, newest first.
func (q *Queries) LatestActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	rows, err := q.db.Query(ctx, `
		SELECT a.id, a.type, a.material_id, a.title, a.description, a.section_key,
		       a.week_label, a.file_url, a.ts, p.full_name, p.email
		FROM (
			SELECT id, 'upload' AS type, id AS material_id, title, description, section_key,
			       week_label, file_url, created_at AS ts, uploader_id AS user_id
			FROM materials
			UNION ALL
			SELECT id, 'edit' AS type, material_id, title, description, section_key,
			       week_label, file_url, edited_at AS ts, editor_id AS user_id
			FROM material_edits
			UNION ALL
			SELECT id, 'delete' AS type, material_id, title, description, section_key,
			       week_label, file_url, deleted_at AS ts, deleter_id AS user_id
			FROM material_deletes
		) a
		LEFT JOIN profiles p ON a.user_id = p.id
		ORDER BY a.ts DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make([]model.Activity, 0)
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(
			&a.ID,
			&a.Type,
			&a.MaterialID,
			&a.Title,
			&a.Description,
			&a.SectionKey,
			&a.WeekLabel,
			&a.FileURL,
			&a.Timestamp,
			&a.FullName,
			&a.Email,
		); err != nil {
			return nil, translate(err)
		}
		out = append(out, a)
	}
	return out, translate(rows.Err())
}
