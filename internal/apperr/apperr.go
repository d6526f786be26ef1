// Package apperr holds the error taxonomy shared by the domain services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalid            = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error pairs a taxonomy kind with a stable client-facing code.
type Error struct {
	Kind    error
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Invalid(code, message string) error {
	return &Error{Kind: ErrInvalid, Code: code, Message: message}
}

func NotFound(code string) error {
	return &Error{Kind: ErrNotFound, Code: code}
}

func Conflict(code string) error {
	return &Error{Kind: ErrConflict, Code: code}
}

// Storage marks err as a persistence failure. A nil err stays nil.
func Storage(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrStorageUnavailable, Code: "server_error", Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the client-facing code carried by err, or fallback.
func CodeOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return fallback
}

// MessageOf returns the message carried by err, if any.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
