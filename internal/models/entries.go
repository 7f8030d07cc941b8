package models

import "time"

// Note is a timestamped note a user takes while following a machine's video.
type Note struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	MachineID int64  `json:"machine_id,omitempty"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	// Timestamp is the position in the video, formatted MM:SS.
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ScheduledEntry is one practice session on the calendar.
type ScheduledEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	MachineID int64  `json:"machine_id"`
	// Date is a YYYY-MM-DD key built from local calendar fields.
	Date string `json:"date"`
	// Machine is the joined catalog record, when available.
	Machine   *Machine  `json:"machines,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
