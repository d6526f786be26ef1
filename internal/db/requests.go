package db

import (
	"context"
	"errors"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// CreateAdminRequest reports false when a pending request for userID already exists.
func (q *Queries) CreateAdminRequest(ctx context.Context, userID string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO admin_requests (user_id, status)
		VALUES ($1, 'pending')
		ON CONFLICT (user_id) WHERE status = 'pending' DO NOTHING
	`, userID)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *Queries) ListPendingRequests(ctx context.Context) ([]model.PendingRequest, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ar.id, ar.user_id, ar.status, ar.created_at,
		       p.id, p.full_name, p.email, p.role, p.created_at
		FROM admin_requests ar
		JOIN profiles p ON p.id = ar.user_id
		WHERE ar.status = 'pending'
		ORDER BY ar.created_at DESC
	`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make([]model.PendingRequest, 0)
	for rows.Next() {
		var req model.PendingRequest
		var status, role string
		if err := rows.Scan(
			&req.ID,
			&req.UserID,
			&status,
			&req.CreatedAt,
			&req.Profile.ID,
			&req.Profile.FullName,
			&req.Profile.Email,
			&role,
			&req.Profile.CreatedAt,
		); err != nil {
			return nil, translate(err)
		}
		req.Status = model.RequestStatus(status)
		req.Profile.Role = model.Role(role)
		out = append(out, req)
	}
	return out, translate(rows.Err())
}

func (q *Queries) GetAdminRequestStatus(ctx context.Context, id string) (model.RequestStatus, error) {
	var status string
	err := q.db.QueryRow(ctx, `SELECT status FROM admin_requests WHERE id = $1`, id).Scan(&status)
	return model.RequestStatus(status), translate(err)
}

// TransitionPending moves a pending request to status and returns its requester.
// ErrNotFound means the request is missing or no longer pending.
func (q *Queries) TransitionPending(ctx context.Context, id string, status model.RequestStatus) (string, error) {
	var userID string
	err := q.db.QueryRow(ctx, `
		UPDATE admin_requests SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id
	`, id, string(status)).Scan(&userID)
	return userID, translate(err)
}

// ApproveAdminRequest flips a pending request to approved and promotes its requester in one transaction.
// It returns the stored status and whether the request exists.
func (s *Store) ApproveAdminRequest(ctx context.Context, id string) (model.RequestStatus, bool, error) {
	return s.decide(ctx, id, model.RequestApproved, func(q *Queries, userID string) error {
		return q.PromoteToAdmin(ctx, userID)
	})
}

func (s *Store) RejectAdminRequest(ctx context.Context, id string) (model.RequestStatus, bool, error) {
	return s.decide(ctx, id, model.RequestRejected, nil)
}

func (s *Store) decide(ctx context.Context, id string, target model.RequestStatus, then func(*Queries, string) error) (model.RequestStatus, bool, error) {
	var (
		status model.RequestStatus
		found  bool
	)
	err := s.WithTx(ctx, func(q *Queries) error {
		userID, err := q.TransitionPending(ctx, id, target)
		if errors.Is(err, ErrNotFound) {
			current, err := q.GetAdminRequestStatus(ctx, id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			status, found = current, true
			return nil
		}
		if err != nil {
			return err
		}
		if then != nil {
			if err := then(q, userID); err != nil {
				return err
			}
		}
		status, found = target, true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return status, found, nil
}
