package api

import (
	"net/http"

	"github.com/inkstrip/inkstrip/pkg/clientip"
	"github.com/inkstrip/inkstrip/svc/demo"
)

type demoStatusResponse struct {
	RemainingCount int    `json:"remainingCount"`
	MaxCount       int    `json:"maxCount"`
	IsAvailable    bool   `json:"isAvailable"`
	Message        string `json:"message,omitempty"`
}

// handleDemoStatus reports the caller's remaining demo allowance for a
// feature. No authentication: the allowance is keyed on the client address.
func (h *Handler) handleDemoStatus(w http.ResponseWriter, r *http.Request) {
	feature, err := demo.ParseFeature(r.URL.Query().Get("feature"))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "feature must be blog or movie")
		return
	}

	status, err := h.deps.Demo.Status(r.Context(), clientip.GetIP(r), feature)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := demoStatusResponse{
		RemainingCount: status.Remaining,
		MaxCount:       status.Max,
		IsAvailable:    status.Available,
	}
	if !status.Available {
		if status.Remaining == 0 {
			resp.Message = "Daily demo limit reached. Come back tomorrow or subscribe for more."
		} else {
			resp.Message = "Demo generation is currently unavailable."
		}
	}

	respond(w, http.StatusOK, resp)
}
