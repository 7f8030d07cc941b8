package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/hacklearn/internal/models"
)

// SessionService defines the account and session operations required by
// the HTTP handlers.
type SessionService interface {
	// Register creates an account and signs it in.
	Register(ctx context.Context, email, password string) (*models.Identity, error)
	// SignIn verifies the credentials and makes the user current.
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	// SignOut clears the current identity.
	SignOut()
	// CurrentUser returns the signed-in user or nil.
	CurrentUser() *models.Identity
}

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	// Sessions performs the underlying session operations.
	Sessions SessionService
}

// CredentialsRequest represents the JSON payload for registration and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles account registration requests.
// On success the new account becomes the current session and its
// identity is returned with 201 Created.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, err := h.Sessions.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, id)
}

// Login handles sign-in requests. Unknown emails and wrong passwords both
// answer 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, err := h.Sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// Logout ends the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.Sessions.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in identity, or 401 when there is none.
func (h *AuthHandler) Me(w http.ResponseWriter, _ *http.Request) {
	id := h.Sessions.CurrentUser()
	if id == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, id)
}
