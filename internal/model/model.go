package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ParseRole accepts the exact stored spelling only.
func ParseRole(value string) (Role, bool) {
	role := Role(value)
	return role, role.Valid()
}

type Profile struct {
	ID        string
	FullName  string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// DisplayNameFromEmail is the local part of an email address.
func DisplayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type AdminRequest struct {
	ID        string
	UserID    string
	Status    RequestStatus
	CreatedAt time.Time
}

// PendingRequest is an admin request joined with the requester's profile.
type PendingRequest struct {
	AdminRequest
	Profile Profile
}

type EventKind string

const (
	KindAssignment EventKind = "assignment"
	KindQuiz       EventKind = "quiz"
	KindOther      EventKind = "other"
)

func (k EventKind) Valid() bool {
	switch k {
	case KindAssignment, KindQuiz, KindOther:
		return true
	}
	return false
}

type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Datetime    time.Time  `json:"datetime"`
	MentionDate *time.Time `json:"mention_date"`
	Module      string     `json:"module"`
	Kind        EventKind  `json:"kind"`
	CreatedBy   *string    `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EventFields are the writable columns of an event, already validated.
type EventFields struct {
	Title       string
	Datetime    time.Time
	MentionDate *time.Time
	Module      string
	Kind        EventKind
}

type Subject struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Activity is one material upload, edit or delete shown on the admin feed.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	MaterialID  string    `json:"material_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	SectionKey  *string   `json:"section_key"`
	WeekLabel   *string   `json:"week_label"`
	FileURL     *string   `json:"file_url"`
	Timestamp   time.Time `json:"timestamp"`
	FullName    *string   `json:"full_name"`
	Email       *string   `json:"email"`
}
