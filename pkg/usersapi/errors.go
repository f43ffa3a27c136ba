package usersapi

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-userboard/components/userboard"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindConflict    Kind = "conflict"
	KindValidation  Kind = "validation"
	KindUnavailable Kind = "unavailable"
	KindGeneric     Kind = "generic"
)

// Error is the typed failure returned by the gateway and the mock client.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("usersapi: %s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("usersapi: %s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match the store's error classes with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case userboard.ErrConflict:
		return e.Kind == KindConflict
	case userboard.ErrRejected:
		return e.Kind == KindValidation
	case userboard.ErrUnavailable:
		return e.Kind == KindUnavailable
	default:
		return false
	}
}

// Detail is the message suitable for showing to a user.
func (e *Error) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == KindUnavailable {
		return "backend unavailable"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// KindOf returns the kind of a gateway error, or "" for other errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsConflict reports a duplicate-name rejection.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsValidation reports a server-side validation rejection.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsUnavailable reports a transport failure.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }
