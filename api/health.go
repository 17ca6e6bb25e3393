package api

import "net/http"

// handleHealth probes every registered dependency and reports per-check status.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.deps.Health))
	healthy := true

	for _, hc := range h.deps.Health {
		if err := hc.Check(r.Context()); err != nil {
			checks[hc.Name] = "unhealthy"
			healthy = false
			h.log.ErrorContext(r.Context(), "healthcheck failed", "check", hc.Name, "error", err)
			continue
		}
		checks[hc.Name] = "ok"
	}

	status := http.StatusOK
	result := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		result = "unhealthy"
	}

	respond(w, status, map[string]any{
		"status": result,
		"checks": checks,
	})
}
