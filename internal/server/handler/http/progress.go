package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/atinyakov/hacklearn/internal/middleware"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/notify"
	"github.com/atinyakov/hacklearn/internal/progress"
	"github.com/go-chi/chi/v5"
)

// TrophyService exposes the achievement state.
type TrophyService interface {
	Load(ctx context.Context) error
	Summary() progress.Summary
	Export(id models.Identity, now time.Time) progress.ProfileExport
}

// RoadmapService reads and toggles roadmap checkboxes.
type RoadmapService interface {
	Roadmap(ctx context.Context, certID int) (progress.Roadmap, error)
	Toggle(ctx context.Context, certID int, machineID int64, completed bool) (progress.Roadmap, error)
}

// NotificationService lists and dismisses transient notifications.
type NotificationService interface {
	Active() []notify.Notification
	Dismiss(id uint64) bool
}

// ProgressHandler serves trophies, the profile and roadmaps.
type ProgressHandler struct {
	Trophies TrophyService
	Roadmaps RoadmapService
	// Now stamps profile exports; defaults to time.Now.
	Now func() time.Time
}

// ToggleRequest ticks or clears a roadmap machine.
type ToggleRequest struct {
	MachineID int64 `json:"machineId" validate:"required,gt=0"`
	Completed bool  `json:"completed"`
}

func (h *ProgressHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// TrophyList returns the level, trophy list and unlocked count. With
// ?refresh=true the stats are reloaded first.
func (h *ProgressHandler) TrophyList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		if err := h.Trophies.Load(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.Trophies.Summary())
}

// Profile downloads the user's progress snapshot as JSON. It runs behind
// RequireSession and reads the identity that middleware stored.
func (h *ProgressHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	now := h.now()
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", progress.ProfileFileName(id.Email, now)))
	writeJSON(w, http.StatusOK, h.Trophies.Export(*id, now))
}

// Certifications lists the available roadmaps.
func (h *ProgressHandler) Certifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, progress.Certifications())
}

// Roadmap returns one roadmap with the user's checkboxes.
func (h *ProgressHandler) Roadmap(w http.ResponseWriter, r *http.Request) {
	certID, err := strconv.Atoi(chi.URLParam(r, "certID"))
	if err != nil {
		http.Error(w, "invalid certification id", http.StatusBadRequest)
		return
	}
	rm, err := h.Roadmaps.Roadmap(r.Context(), certID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// Toggle ticks or clears one machine of a roadmap.
func (h *ProgressHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	certID, err := strconv.Atoi(chi.URLParam(r, "certID"))
	if err != nil {
		http.Error(w, "invalid certification id", http.StatusBadRequest)
		return
	}
	var req ToggleRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	rm, err := h.Roadmaps.Toggle(r.Context(), certID, req.MachineID, req.Completed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// NotificationHandler serves the transient notifications.
type NotificationHandler struct {
	Notifications NotificationService
}

// List returns the notifications that have not expired.
func (h *NotificationHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Notifications.Active())
}

// Dismiss closes one notification before it expires.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if !h.Notifications.Dismiss(id) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
