package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/atinyakov/hacklearn/internal/service"
)

// fakeSessions implements SessionService for testing.
type fakeSessions struct {
	current   *models.Identity
	err       error
	signedOut bool
}

func (f *fakeSessions) Register(_ context.Context, email, _ string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.current = &models.Identity{ID: "new-id", Email: email}
	return f.current, nil
}

func (f *fakeSessions) SignIn(_ context.Context, email, _ string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.current = &models.Identity{ID: "alice-id", Email: email}
	return f.current, nil
}

func (f *fakeSessions) SignOut() {
	f.signedOut = true
	f.current = nil
}

func (f *fakeSessions) CurrentUser() *models.Identity { return f.current }

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		sessions       *fakeSessions
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			sessions:       &fakeSessions{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "bad email",
			body:           `{"email":"alice","password":"secret1"}`,
			sessions:       &fakeSessions{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "short password",
			body:           `{"email":"alice@example.com","password":"abc"}`,
			sessions:       &fakeSessions{err: models.ErrValidation},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "validation failed",
		},
		{
			name:           "already registered",
			body:           `{"email":"alice@example.com","password":"secret1"}`,
			sessions:       &fakeSessions{err: service.ErrUserExists},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "user already exists",
		},
		{
			name:           "store failure",
			body:           `{"email":"alice@example.com","password":"secret1"}`,
			sessions:       &fakeSessions{err: errors.New("disk full")},
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "internal error",
		},
		{
			name:           "success",
			body:           `{"email":"alice@example.com","password":"secret1"}`,
			sessions:       &fakeSessions{},
			expectedCode:   http.StatusCreated,
			expectedSubstr: `"email":"alice@example.com"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(tt.body))

			h := &AuthHandler{Sessions: tt.sessions}
			h.Register(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(res.Body); err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, buf.String())
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		sessions     *fakeSessions
		expectedCode int
		expectedJSON map[string]string
	}{
		{
			name:         "missing password",
			body:         `{"email":"alice@example.com"}`,
			sessions:     &fakeSessions{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "wrong password",
			body:         `{"email":"alice@example.com","password":"nope"}`,
			sessions:     &fakeSessions{err: service.ErrInvalidCredentials},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "successful login",
			body:         `{"email":"alice@example.com","password":"secret1"}`,
			sessions:     &fakeSessions{},
			expectedCode: http.StatusOK,
			expectedJSON: map[string]string{"id": "alice-id", "email": "alice@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(tt.body))

			h := &AuthHandler{Sessions: tt.sessions}
			h.Login(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("%s: expected status %d, got %d", tt.name, tt.expectedCode, res.StatusCode)
			}

			if tt.expectedJSON != nil {
				var payload map[string]string
				if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
					t.Fatalf("failed to decode JSON: %v", err)
				}
				for k, v := range tt.expectedJSON {
					if payload[k] != v {
						t.Errorf("expected %s=%q, got %q", k, v, payload[k])
					}
				}
			}
		})
	}
}

func TestAuthHandler_LogoutAndMe(t *testing.T) {
	sessions := &fakeSessions{current: &models.Identity{ID: "alice-id", Email: "alice@example.com"}}
	h := &AuthHandler{Sessions: sessions}

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest("POST", "/api/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !sessions.signedOut {
		t.Error("expected SignOut to be called")
	}

	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}
