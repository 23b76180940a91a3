package api

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 5 * time.Second

// HealthResponse represents the JSON response from the /health endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// health pings every backend. Returns 200 if all respond, 503 otherwise.
//
// Response format:
//   - Success: {"status": "healthy", "checks": {"redis": "ok"}}
//   - Failure: {"status": "unhealthy", "checks": {"redis": "unavailable"}}
//
// Ping errors are logged, never returned; they carry backend addresses.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK

	for _, c := range s.checks {
		if err := c.Pinger.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "check", c.Name, "error", err)
			resp.Checks[c.Name] = "unavailable"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	writeJSON(w, status, resp)
}
