package http

import (
	"net/http"

	"github.com/atinyakov/hacklearn/internal/gateway"
)

// HealthService reports backend connectivity.
type HealthService interface {
	Health() gateway.Health
}

// HealthHandler serves the liveness and connectivity report.
type HealthHandler struct {
	Gateway HealthService
}

// Health always answers 200: the service stays usable on the fallback
// store while the backend is away.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Gateway.Health())
}
