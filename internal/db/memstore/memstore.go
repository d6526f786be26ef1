// Package memstore is an in-memory stand-in for the Postgres store with per-operation failure injection.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// Operation names accepted by Fail.
const (
	OpGetProfileByEmail   = "GetProfileByEmail"
	OpUpsertProfile       = "UpsertProfile"
	OpSetProfileRole      = "SetProfileRole"
	OpListProfiles        = "ListProfiles"
	OpCreateAdminRequest  = "CreateAdminRequest"
	OpListPendingRequests = "ListPendingRequests"
	OpPromoteToAdmin      = "PromoteToAdmin"
	OpDecideAdminRequest  = "DecideAdminRequest"
	OpDemoteAdmin         = "DemoteAdmin"
	OpListEvents          = "ListEvents"
	OpInsertEvent         = "InsertEvent"
	OpUpdateEvent         = "UpdateEvent"
	OpDeleteEvent         = "DeleteEvent"
	OpDeleteEventsBefore  = "DeleteEventsBefore"
	OpListSubjects        = "ListSubjects"
	OpLatestActivity      = "LatestActivity"
)

type Store struct {
	mu         sync.RWMutex
	profiles   map[string]model.Profile
	requests   map[string]model.AdminRequest
	events     map[string]model.Event
	subjects   map[string]model.Subject
	activities []model.Activity
	failures   map[string]error
	clock      time.Time
}

func New() *Store {
	return &Store{
		profiles: make(map[string]model.Profile),
		requests: make(map[string]model.AdminRequest),
		events:   make(map[string]model.Event),
		subjects: make(map[string]model.Subject),
		failures: make(map[string]error),
	}
}

// Fail makes op return err until cleared with a nil err.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	return s.failures[op]
}

// tick returns strictly increasing creation times so newest-first ordering is stable.
func (s *Store) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.clock) {
		now = s.clock.Add(time.Microsecond)
	}
	s.clock = now
	return now
}

// Profiles

func (s *Store) GetProfileByEmail(_ context.Context, email string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpGetProfileByEmail); err != nil {
		return model.Profile{}, err
	}
	for _, p := range s.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return model.Profile{}, db.ErrNotFound
}

func (s *Store) GetProfile(_ context.Context, id string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, db.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, email, fullName string, role model.Role) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpUpsertProfile); err != nil {
		return model.Profile{}, err
	}
	for _, p := range s.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	p := model.Profile{ID: uuid.NewString(), FullName: fullName, Email: email, Role: role, CreatedAt: s.tick()}
	s.profiles[p.ID] = p
	return p, nil
}

func (s *Store) SetProfileRole(_ context.Context, id string, role model.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpSetProfileRole); err != nil {
		return false, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return false, nil
	}
	p.Role = role
	s.profiles[id] = p
	return true, nil
}

func (s *Store) DemoteAdmin(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDemoteAdmin); err != nil {
		return false, err
	}
	p, ok := s.profiles[id]
	if !ok || p.Role != model.RoleAdmin {
		return false, nil
	}
	p.Role = model.RoleMember
	s.profiles[id] = p
	return true, nil
}

func (s *Store) ListProfiles(_ context.Context) ([]model.Profile, error) {
	return s.listProfiles(func(model.Profile) bool { return true })
}

func (s *Store) ListProfilesByRole(_ context.Context, role model.Role) ([]model.Profile, error) {
	return s.listProfiles(func(p model.Profile) bool { return p.Role == role })
}

func (s *Store) listProfiles(keep func(model.Profile) bool) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpListProfiles); err != nil {
		return nil, err
	}
	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.Profile) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// Admin requests

func (s *Store) CreateAdminRequest(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpCreateAdminRequest); err != nil {
		return false, err
	}
	if _, ok := s.profiles[userID]; !ok {
		return false, db.ErrMissingReference
	}
	for _, r := range s.requests {
		if r.UserID == userID && r.Status == model.RequestPending {
			return false, nil
		}
	}
	r := model.AdminRequest{ID: uuid.NewString(), UserID: userID, Status: model.RequestPending, CreatedAt: s.tick()}
	s.requests[r.ID] = r
	return true, nil
}

func (s *Store) ListPendingRequests(_ context.Context) ([]model.PendingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpListPendingRequests); err != nil {
		return nil, err
	}
	out := make([]model.PendingRequest, 0)
	for _, r := range s.requests {
		if r.Status != model.RequestPending {
			continue
		}
		out = append(out, model.PendingRequest{AdminRequest: r, Profile: s.profiles[r.UserID]})
	}
	slices.SortFunc(out, func(a, b model.PendingRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// PendingCount reports how many pending requests userID has.
func (s *Store) PendingCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.requests {
		if r.UserID == userID && r.Status == model.RequestPending {
			n++
		}
	}
	return n
}

func (s *Store) RequestStatus(id string) (model.RequestStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	return r.Status, ok
}

// ApproveAdminRequest holds the lock across both mutations, so an injected
// promotion failure leaves the request pending.
func (s *Store) ApproveAdminRequest(_ context.Context, id string) (model.RequestStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decide(id, model.RequestApproved, func(userID string) error {
		if err := s.failure(OpPromoteToAdmin); err != nil {
			return err
		}
		p, ok := s.profiles[userID]
		if ok && p.Role != model.RoleSuperAdmin {
			p.Role = model.RoleAdmin
			s.profiles[userID] = p
		}
		return nil
	})
}

func (s *Store) RejectAdminRequest(_ context.Context, id string) (model.RequestStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decide(id, model.RequestRejected, nil)
}

func (s *Store) decide(id string, target model.RequestStatus, then func(string) error) (model.RequestStatus, bool, error) {
	if err := s.failure(OpDecideAdminRequest); err != nil {
		return "", false, err
	}
	r, ok := s.requests[id]
	if !ok {
		return "", false, nil
	}
	if r.Status != model.RequestPending {
		return r.Status, true, nil
	}
	if then != nil {
		if err := then(r.UserID); err != nil {
			return "", false, err
		}
	}
	r.Status = target
	s.requests[id] = r
	return target, true, nil
}

// Events

func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpListEvents); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.Event) int {
		if c := a.Datetime.Compare(b.Datetime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) InsertEvent(_ context.Context, fields model.EventFields, createdBy *string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpInsertEvent); err != nil {
		return model.Event{}, err
	}
	if createdBy != nil {
		if _, ok := s.profiles[*createdBy]; !ok {
			return model.Event{}, db.ErrMissingReference
		}
	}
	e := model.Event{ID: uuid.NewString(), CreatedBy: createdBy, CreatedAt: s.tick()}
	applyFields(&e, fields)
	s.events[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEvent(_ context.Context, id string, fields model.EventFields) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpUpdateEvent); err != nil {
		return model.Event{}, err
	}
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, db.ErrNotFound
	}
	applyFields(&e, fields)
	s.events[id] = e
	return e, nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDeleteEvent); err != nil {
		return false, err
	}
	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	return true, nil
}

func (s *Store) DeleteEventsBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDeleteEventsBefore); err != nil {
		return nil, err
	}
	removed := make([]string, 0)
	for id, e := range s.events {
		if e.Datetime.Before(cutoff) {
			removed = append(removed, id)
			delete(s.events, id)
		}
	}
	return removed, nil
}

func applyFields(e *model.Event, fields model.EventFields) {
	e.Title = fields.Title
	e.Datetime = fields.Datetime
	e.MentionDate = fields.MentionDate
	e.Module = fields.Module
	e.Kind = fields.Kind
}

// Subjects and activity

func (s *Store) ListSubjects(_ context.Context) ([]model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpListSubjects); err != nil {
		return nil, err
	}
	out := make([]model.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b model.Subject) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}

func (s *Store) GetSubject(_ context.Context, id string) (model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subjects[id]
	if !ok {
		return model.Subject{}, db.ErrNotFound
	}
	return sub, nil
}

func (s *Store) InsertSubject(_ context.Context, code, name string) (model.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subjects {
		if sub.Code == code {
			return model.Subject{}, db.ErrDuplicate
		}
	}
	sub := model.Subject{ID: uuid.NewString(), Code: code, Name: name}
	s.subjects[sub.ID] = sub
	return sub, nil
}

// AddActivity records a material action for the activity feed.
func (s *Store) AddActivity(a model.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.tick()
	}
	s.activities = append(s.activities, a)
}

func (s *Store) LatestActivity(_ context.Context, limit int) ([]model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpLatestActivity); err != nil {
		return nil, err
	}
	out := slices.Clone(s.activities)
	slices.SortFunc(out, func(a, b model.Activity) int { return b.Timestamp.Compare(a.Timestamp) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []model.Activity{}
	}
	return out, nil
}
