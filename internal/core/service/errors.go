package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures the service reports to its callers.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindUsernameConflict ErrorKind = "username_conflict"
	KindPasswordMismatch ErrorKind = "password_mismatch"
)

// MismatchKind says which password check failed.
type MismatchKind string

const (
	MismatchCurrent      MismatchKind = "current"
	MismatchConfirmation MismatchKind = "confirmation"
)

// ServiceError is a domain failure with a stable kind. Compare with errors.Is
// against ErrNotFound, ErrUsernameConflict or ErrPasswordMismatch.
type ServiceError struct {
	Kind     ErrorKind
	Mismatch MismatchKind
	Message  string
	Err      error
}

var (
	ErrNotFound         = &ServiceError{Kind: KindNotFound, Message: "not found"}
	ErrUsernameConflict = &ServiceError{Kind: KindUsernameConflict, Message: "username already exists"}
	ErrPasswordMismatch = &ServiceError{Kind: KindPasswordMismatch, Message: "password does not match"}
)

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches on kind so wrapped and freshly built errors compare equal to the
// sentinels.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Mismatch == "" || e.Mismatch == t.Mismatch)
}

func newNotFoundError(id int64, cause error) *ServiceError {
	return &ServiceError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("user id=%d not found", id),
		Err:     cause,
	}
}

func newUsernameConflictError(username string, cause error) *ServiceError {
	return &ServiceError{
		Kind:    KindUsernameConflict,
		Message: fmt.Sprintf("username {%s} already registered", username),
		Err:     cause,
	}
}

func newPasswordMismatchError(kind MismatchKind) *ServiceError {
	msg := "current password does not match"
	if kind == MismatchConfirmation {
		msg = "new password does not match the confirmation"
	}
	return &ServiceError{Kind: KindPasswordMismatch, Mismatch: kind, Message: msg}
}

// KindOf returns the kind of the first ServiceError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
