package models

import (
	"fmt"
	"time"
)

// Status is the per-user state of a machine.
type Status int

const (
	// StatusNone means the user has not flagged the machine.
	StatusNone Status = iota
	// StatusWanted means the user plans to attempt the machine.
	StatusWanted
	// StatusSolved is terminal.
	StatusSolved
)

// Stored representations, shared by the backend table and the fallback store.
const (
	statusNoneText   = "none"
	statusWantedText = "deseada"
	statusSolvedText = "resuelta"
)

// String returns the stored representation of s.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return statusNoneText
	case StatusWanted:
		return statusWantedText
	case StatusSolved:
		return statusSolvedText
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus converts a stored representation back into a Status.
// The empty string is treated as StatusNone.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "", statusNoneText:
		return StatusNone, nil
	case statusWantedText:
		return StatusWanted, nil
	case statusSolvedText:
		return StatusSolved, nil
	default:
		return StatusNone, fmt.Errorf("%w: unknown status %q", ErrValidation, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusNone, StatusWanted, StatusSolved:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Solved is terminal: only re-asserting solved is accepted.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusNone, StatusWanted:
		return true
	case StatusSolved:
		return next == StatusSolved
	default:
		return false
	}
}

// UserMachineStatus relates a user to a machine.
type UserMachineStatus struct {
	ID           int64      `json:"id,omitempty"`
	UserID       string     `json:"user_id"`
	MachineID    int64      `json:"machine_id"`
	Status       Status     `json:"status"`
	DateAdded    time.Time  `json:"date_added,omitzero"`
	DateResolved *time.Time `json:"date_resolved,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitzero"`
}
