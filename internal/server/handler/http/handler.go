// Package http exposes the learning tracker as a JSON API: accounts and
// the session, the machine catalog with per-user status and notes, the
// study calendar, trophies, roadmaps and transient notifications.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/atinyakov/hacklearn/internal/calendar"
	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/progress"
	"github.com/atinyakov/hacklearn/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error to the HTTP status reported for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotAuthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, progress.ErrUnknownCertification),
		errors.Is(err, calendar.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, models.ErrSolvedIsTerminal),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidDateKey),
		errors.Is(err, calendar.ErrNoDateSelected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, code)
}

func int64Param(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return v, err == nil
}

func intQuery(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
