package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/hacklearn/internal/gateway"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/go-chi/chi/v5"
)

// CatalogService defines the catalog and per-user progress operations
// required by the HTTP handlers.
type CatalogService interface {
	ListMachines(ctx context.Context, f models.MachineFilter, page, pageSize int) (gateway.Result[[]models.Machine], error)
	Machine(ctx context.Context, id int64) (gateway.Result[*models.Machine], error)
	MachineByName(ctx context.Context, name string) (gateway.Result[*models.Machine], error)
	Status(ctx context.Context, machineID int64) (gateway.Result[models.Status], error)
	SetStatus(ctx context.Context, machineID int64, status models.Status, confirmed bool) (gateway.Result[*models.UserMachineStatus], error)
	Notes(ctx context.Context, machineID int64) (gateway.Result[[]models.Note], error)
	AddNote(ctx context.Context, machineID int64, name, content, timestamp string) (gateway.Result[*models.Note], error)
	DeleteNote(ctx context.Context, noteID string) (gateway.Result[gateway.Done], error)
	Stats(ctx context.Context) (gateway.Result[models.UserStats], error)
	SolvedByDifficulty(ctx context.Context) (gateway.Result[models.DifficultyStats], error)
	SolvedMachines(ctx context.Context) (gateway.Result[[]models.Machine], error)
	CertificationProgress(ctx context.Context) (gateway.Result[[]models.CertificationProgress], error)
}

// CatalogHandler serves the machine catalog, statuses, notes and stats.
type CatalogHandler struct {
	Catalog CatalogService
}

// StatusRequest moves a machine to a new status. Marking it solved needs
// Confirm.
type StatusRequest struct {
	Status  string `json:"status" validate:"oneof=none deseada resuelta"`
	Confirm bool   `json:"confirm"`
}

// NoteRequest adds a note to a machine. Timestamp falls back to 00:00
// when missing or malformed.
type NoteRequest struct {
	Name      string `json:"name" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Timestamp string `json:"timestamp"`
}

// respond writes res, or the error that replaced it.
func respond[T any](w http.ResponseWriter, res gateway.Result[T], err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// List returns one page of machines. Query parameters: difficulty, os,
// technique, tag, search, page (1-based) and pageSize.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.MachineFilter{
		Difficulty: q.Get("difficulty"),
		OS:         q.Get("os"),
		Technique:  q.Get("technique"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}
	res, err := h.Catalog.ListMachines(r.Context(), f, intQuery(r, "page", 1), intQuery(r, "pageSize", 0))
	respond(w, res, err)
}

// Get returns one machine by id.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}
	res, err := h.Catalog.Machine(r.Context(), id)
	respond(w, res, err)
}

// ByName returns one machine by case-insensitive name.
func (h *CatalogHandler) ByName(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.MachineByName(r.Context(), chi.URLParam(r, "name"))
	respond(w, res, err)
}

// Status returns the current user's status for a machine.
func (h *CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}
	res, err := h.Catalog.Status(r.Context(), id)
	respond(w, res, err)
}

// SetStatus changes the current user's status for a machine.
func (h *CatalogHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}
	var req StatusRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Catalog.SetStatus(r.Context(), id, status, req.Confirm)
	respond(w, res, err)
}

// Notes lists the current user's notes on a machine.
func (h *CatalogHandler) Notes(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}
	res, err := h.Catalog.Notes(r.Context(), id)
	respond(w, res, err)
}

// AddNote stores a note on a machine.
func (h *CatalogHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		http.Error(w, "invalid machine id", http.StatusBadRequest)
		return
	}
	var req NoteRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.Catalog.AddNote(r.Context(), id, req.Name, req.Content, req.Timestamp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// DeleteNote removes one of the current user's notes.
func (h *CatalogHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.DeleteNote(r.Context(), chi.URLParam(r, "noteID"))
	respond(w, res, err)
}

// Stats returns the solved, wanted and total counts.
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.Stats(r.Context())
	respond(w, res, err)
}

// Difficulty returns the solved counts per difficulty bucket.
func (h *CatalogHandler) Difficulty(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.SolvedByDifficulty(r.Context())
	respond(w, res, err)
}

// Solved lists the machines the user has solved.
func (h *CatalogHandler) Solved(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.SolvedMachines(r.Context())
	respond(w, res, err)
}

// Certifications returns the solved share of each certification.
func (h *CatalogHandler) Certifications(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.CertificationProgress(r.Context())
	respond(w, res, err)
}
