package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotFound               = errors.New("not found")
	ErrDuplicateRequest       = errors.New("friend request already exists")
	ErrInvalidCategory        = errors.New("invalid category")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPartialWrite           = errors.New("partial write")
)

// PartialWriteError reports a multi-step update where a later step failed
// after earlier ones were already applied and could not be undone.
type PartialWriteError struct {
	Op        string
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: partial write, completed [%s], failed %s: %v",
		e.Op, strings.Join(e.Completed, ", "), e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

func (e *PartialWriteError) Is(target error) bool { return target == ErrPartialWrite }

// NotFound wraps ErrNotFound with the kind of thing that was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
