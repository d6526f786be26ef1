// Package requests implements the admin access request workflow.
package requests

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Learn-Trical-23/EE-24/internal/apperr"
	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

type Store interface {
	CreateAdminRequest(ctx context.Context, userID string) (bool, error)
	ListPendingRequests(ctx context.Context) ([]model.PendingRequest, error)
	// ApproveAdminRequest must apply the status change and the promotion atomically.
	ApproveAdminRequest(ctx context.Context, id string) (model.RequestStatus, bool, error)
	RejectAdminRequest(ctx context.Context, id string) (model.RequestStatus, bool, error)
	DemoteAdmin(ctx context.Context, userID string) (bool, error)
}

type Workflow struct {
	store Store
	log   zerolog.Logger
}

func NewWorkflow(store Store, logger zerolog.Logger) *Workflow {
	return &Workflow{store: store, log: logger}
}

// Create files a pending request. A second request while one is pending is a silent no-op.
func (w *Workflow) Create(ctx context.Context, userID string) error {
	created, err := w.store.CreateAdminRequest(ctx, userID)
	if errors.Is(err, db.ErrMissingReference) || errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("user_not_found")
	}
	if err != nil {
		return apperr.Storage(err, "create admin request")
	}
	if created {
		w.log.Info().Str("user_id", userID).Msg("admin request filed")
	}
	return nil
}

// ListPending returns pending requests with their requester, newest first.
func (w *Workflow) ListPending(ctx context.Context) ([]model.PendingRequest, error) {
	pending, err := w.store.ListPendingRequests(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "list pending requests")
	}
	return pending, nil
}

// Approve promotes the requester to admin. Terminal requests keep their status,
// which is returned; unknown ids are a no-op.
func (w *Workflow) Approve(ctx context.Context, requestID string) (model.RequestStatus, error) {
	return w.decide(ctx, requestID, model.RequestApproved, w.store.ApproveAdminRequest)
}

func (w *Workflow) Reject(ctx context.Context, requestID string) (model.RequestStatus, error) {
	return w.decide(ctx, requestID, model.RequestRejected, w.store.RejectAdminRequest)
}

func (w *Workflow) decide(ctx context.Context, requestID string, target model.RequestStatus, apply func(context.Context, string) (model.RequestStatus, bool, error)) (model.RequestStatus, error) {
	status, found, err := apply(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return target, nil
	}
	if err != nil {
		return "", apperr.Storage(err, "%s admin request", target)
	}
	if !found {
		w.log.Debug().Str("request_id", requestID).Msg("admin request not found")
		return target, nil
	}
	if status == target {
		w.log.Info().Str("request_id", requestID).Str("status", string(status)).Msg("admin request decided")
	}
	return status, nil
}

// RemoveAdmin demotes an admin back to member. Non-admins are left untouched.
func (w *Workflow) RemoveAdmin(ctx context.Context, userID string) error {
	demoted, err := w.store.DemoteAdmin(ctx, userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return apperr.Storage(err, "remove admin")
	}
	if demoted {
		w.log.Info().Str("user_id", userID).Msg("admin removed")
	}
	return nil
}
