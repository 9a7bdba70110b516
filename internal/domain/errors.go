package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"lendhub/internal/models"
)

var (
	// ErrNotFound is returned when a referenced entity id is absent.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidTransition is returned when a state machine
	// precondition is violated (wrong current status).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSlotConflict is returned when a reservation would double-book
	// an occupied (date, slot) pair.
	ErrSlotConflict = errors.New("time slot already reserved")

	// ErrTimeoutExceeded is returned when a refresh batch exhausted its
	// retry budget. Fatal for that refresh cycle only.
	ErrTimeoutExceeded = errors.New("synchronization timeout exceeded")
)

// RemoteKind classifies a gateway failure for retry decisions.
type RemoteKind string

const (
	KindTimeout RemoteKind = "timeout"
	KindNetwork RemoteKind = "network"
	KindOther   RemoteKind = "other"
)

// RemoteError wraps an opaque gateway failure with its kind and the
// operation that produced it.
type RemoteError struct {
	Op   string
	Kind RemoteKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError builds a RemoteError, defaulting the kind to other.
func NewRemoteError(op string, kind RemoteKind, err error) *RemoteError {
	if kind == "" {
		kind = KindOther
	}
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// Retryable reports whether err is a transient remote failure worth
// retrying: only timeout and network kinds qualify. Business errors
// (conflicts, invalid transitions) never do.
func Retryable(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind == KindTimeout || re.Kind == KindNetwork
	}
	return errors.Is(err, ErrTimeoutExceeded)
}

// Conflict reports whether err represents a legitimate business
// conflict with existing data, as opposed to a transient failure.
func Conflict(err error) bool {
	return errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrInvalidTransition)
}

// PartialFailure reports a refresh where some entity types failed while
// others succeeded. It is non-fatal: callers keep serving cached data
// for the failed types.
type PartialFailure struct {
	Failed map[models.EntityType]error
}

func (e *PartialFailure) Error() string {
	types := make([]string, 0, len(e.Failed))
	for t := range e.Failed {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return fmt.Sprintf("partial refresh failure: %s", strings.Join(types, ", "))
}

// All reports whether every requested entity type failed, in which case
// the refresh produced nothing usable.
func (e *PartialFailure) All(requested int) bool {
	return requested > 0 && len(e.Failed) == requested
}
