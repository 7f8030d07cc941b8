package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/hacklearn/internal/calendar"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/go-chi/chi/v5"
)

// CalendarService defines the study calendar operations required by the
// HTTP handlers.
type CalendarService interface {
	Load(ctx context.Context) error
	ShiftMonth(ctx context.Context, delta int) error
	ShiftDay(delta int) string
	Select(dateKey string) error
	Selected() string
	Schedule(ctx context.Context, machineID int64, dateKey string) (*models.ScheduledEntry, error)
	Unschedule(ctx context.Context, entryID string) error
	Entries(dateKey string) []models.ScheduledEntry
	Day() calendar.DayView
	Upcoming(limit int) []calendar.Session
	Stats() calendar.MonthStats
	MonthGrid() calendar.Grid
	ExportCSV() (string, error)
}

// CalendarHandler serves the study calendar.
type CalendarHandler struct {
	Calendar CalendarService
	// Now stamps export file names; defaults to time.Now.
	Now func() time.Time
}

// ShiftRequest moves the visible month or the day view one step back (-1)
// or forward (1).
type ShiftRequest struct {
	Delta int `json:"delta" validate:"oneof=-1 1"`
}

// SelectRequest selects a day.
type SelectRequest struct {
	Date string `json:"date" validate:"required"`
}

// ScheduleRequest plans a machine. An empty Date uses the selected day.
type ScheduleRequest struct {
	MachineID int64  `json:"machineId" validate:"required,gt=0"`
	Date      string `json:"date"`
}

func (h *CalendarHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Grid returns the visible month laid out Monday-first.
func (h *CalendarHandler) Grid(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Calendar.MonthGrid())
}

// Reload refetches the visible month.
func (h *CalendarHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Calendar.MonthGrid())
}

// ShiftMonth moves the visible month and reloads it.
func (h *CalendarHandler) ShiftMonth(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Calendar.ShiftMonth(r.Context(), req.Delta); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Calendar.MonthGrid())
}

// Day returns the day view.
func (h *CalendarHandler) Day(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Calendar.Day())
}

// ShiftDay moves the day view without reloading.
func (h *CalendarHandler) ShiftDay(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.Calendar.ShiftDay(req.Delta)
	writeJSON(w, http.StatusOK, h.Calendar.Day())
}

// Select marks a day as the scheduling target.
func (h *CalendarHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Calendar.Select(req.Date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    h.Calendar.Selected(),
		"entries": h.Calendar.Entries(req.Date),
	})
}

// Schedule plans a machine on a day.
func (h *CalendarHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	entry, err := h.Calendar.Schedule(r.Context(), req.MachineID, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Unschedule removes a planned session.
func (h *CalendarHandler) Unschedule(w http.ResponseWriter, r *http.Request) {
	if err := h.Calendar.Unschedule(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upcoming lists the next sessions from today on.
func (h *CalendarHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Calendar.Upcoming(intQuery(r, "limit", calendar.UpcomingLimit)))
}

// Stats summarises the visible month.
func (h *CalendarHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Calendar.Stats())
}

// Export downloads the loaded sessions as CSV.
func (h *CalendarHandler) Export(w http.ResponseWriter, _ *http.Request) {
	body, err := h.Calendar.ExportCSV()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", calendar.ExportFileName(h.now())))
	_, _ = w.Write([]byte(body))
}
