package contracts

import (
	"fmt"
	"strings"
)

// Status is a contract lifecycle status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusApproved  Status = "approved"
	StatusSigned    Status = "signed"
	StatusArchived  Status = "archived"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusDraft,
	StatusReview,
	StatusApproved,
	StatusSigned,
	StatusArchived,
	StatusExpired,
	StatusCancelled,
}

// transitions maps each status to the statuses reachable from it.
// Every status has an entry; terminal statuses map to an empty set.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusReview, StatusCancelled},
	StatusReview:    {StatusApproved, StatusDraft, StatusCancelled},
	StatusApproved:  {StatusSigned, StatusReview, StatusCancelled},
	StatusSigned:    {StatusArchived, StatusExpired, StatusCancelled},
	StatusArchived:  {},
	StatusExpired:   {},
	StatusCancelled: {},
}

// Valid reports whether s is a member of the status enumeration.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes raw and checks it against the enumeration.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, raw)
	}
	return s, nil
}

// NextStatuses returns a copy of the statuses reachable from s.
func NextStatuses(s Status) []Status {
	return append([]Status{}, transitions[s]...)
}

// CanTransition reports whether the table allows moving from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError names a (from, to) pair rejected by the workflow guard.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidateTransition is the workflow guard. It never has side effects.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, string(to))
	}
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
