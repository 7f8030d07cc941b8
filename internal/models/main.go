// Package models defines the core data structures for the learning tracker:
// identities, catalog machines, per-user progress, notes, schedule entries,
// trophies and certification roadmaps.
package models

import (
	"strings"
	"time"
)

// Identity is the authenticated user as seen by every component.
type Identity struct {
	// ID is the opaque user identifier (UUID).
	ID string `json:"id"`
	// Email is the address the user signed in with.
	Email string `json:"email"`
}

// User is the stored account behind an Identity.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Difficulty is the catalog difficulty label.
type Difficulty string

const (
	// DifficultyVeryEasy is the entry level label.
	DifficultyVeryEasy Difficulty = "Muy Fácil"
	// DifficultyEasy labels easy machines.
	DifficultyEasy Difficulty = "Fácil"
	// DifficultyMedium labels medium machines.
	DifficultyMedium Difficulty = "Media"
	// DifficultyHard labels hard machines.
	DifficultyHard Difficulty = "Difícil"
	// DifficultyInsane labels the hardest machines.
	DifficultyInsane Difficulty = "Insane"
)

// Machine is a catalog entry. It is owned by the backend and never
// modified by the client.
type Machine struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Difficulty     Difficulty `json:"difficulty"`
	OS             string     `json:"os"`
	IP             string     `json:"ip,omitempty"`
	Techniques     []string   `json:"techniques"`
	Certifications []string   `json:"certifications"`
	Tags           []string   `json:"tags"`
	// Video is either a full URL or a raw video identifier.
	Video          string `json:"video"`
	DownloadOVA    string `json:"download_ova,omitempty"`
	DownloadDocker string `json:"download_docker,omitempty"`
}

// MachineFilter holds the optional catalog filters. Non-empty fields are
// combined with logical AND.
type MachineFilter struct {
	Difficulty string `json:"difficulty,omitempty"`
	OS         string `json:"os,omitempty"`
	Technique  string `json:"technique,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Search     string `json:"search,omitempty"`
}

// UserStats aggregates the status counts of one user.
type UserStats struct {
	Solved int `json:"solved"`
	Wanted int `json:"wanted"`
	Total  int `json:"total"`
}

// DifficultyStats counts solved machines per difficulty bucket.
type DifficultyStats struct {
	Facil   int `json:"Facil"`
	Media   int `json:"Media"`
	Dificil int `json:"Dificil"`
	Insane  int `json:"Insane"`
}

// Count adds one machine of difficulty d to its bucket. Labels are matched
// by substring, so "Muy Fácil" counts as Facil. Unknown labels are ignored.
func (s *DifficultyStats) Count(d Difficulty) {
	l := strings.ToLower(string(d))
	switch {
	case strings.Contains(l, "fácil"), strings.Contains(l, "facil"):
		s.Facil++
	case strings.Contains(l, "media"):
		s.Media++
	case strings.Contains(l, "difícil"), strings.Contains(l, "dificil"):
		s.Dificil++
	case strings.Contains(l, "insane"):
		s.Insane++
	}
}

// CertificationProgress is the solved share of the catalog tagged with one certification.
type CertificationProgress struct {
	Name   string `json:"name"`
	Total  int    `json:"total"`
	Solved int    `json:"solved"`
	Pct    int    `json:"pct"`
}
