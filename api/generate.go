package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/inkstrip/inkstrip/pkg/clientip"
	"github.com/inkstrip/inkstrip/svc/demo"
	"github.com/inkstrip/inkstrip/svc/identity"
	"github.com/inkstrip/inkstrip/svc/usage"
)

type generateRequest struct {
	Kind      string `json:"kind"`
	SourceURL string `json:"sourceUrl"`
	Content   string `json:"content"`
	APIKey    string `json:"apiKey"`
}

type generateResponse struct {
	Comic     json.RawMessage `json:"comic"`
	Mode      string          `json:"mode"`
	Remaining *int            `json:"remaining,omitempty"`
}

// handleGenerate gates a generation behind one of three admission modes:
// a caller-supplied API key (unmetered), a paid plan's monthly allowance, or
// the anonymous per-address demo allowance. Plan usage is recorded only after
// the generation succeeds; the demo counter is consumed at admission, so a
// failed demo generation still spends a credit.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	kind, err := usage.ParseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "kind must be blog or movie")
		return
	}
	if strings.TrimSpace(req.SourceURL) == "" && strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, CodeValidation, "either sourceUrl or content is required")
		return
	}

	input := GenerationInput{
		Kind:      kind,
		SourceURL: req.SourceURL,
		Content:   req.Content,
	}

	// Callers with their own API key bypass metering entirely.
	if strings.TrimSpace(req.APIKey) != "" {
		input.APIKey = strings.TrimSpace(req.APIKey)
		h.generate(w, r, input, generateResponse{Mode: "byok"}, nil)
		return
	}

	if id, ok := identity.FromContext(r.Context()); ok {
		quota, err := h.deps.Usage.GetUsage(r.Context(), id.ID)
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		// Metered generation is open to lite and above; the tiers are
		// totally ordered so one comparison covers both paid plans.
		if quota.Plan.AtLeast(usage.PlanLite) {
			if !quota.Allowed {
				respondError(w, http.StatusTooManyRequests, CodeUsageLimitExceeded,
					"Monthly generation limit reached. Upgrade your plan for more.")
				return
			}
			remaining := quota.Remaining - 1
			h.generate(w, r, input, generateResponse{Mode: "plan", Remaining: &remaining}, func() {
				h.deps.Usage.RecordUsage(r.Context(), id.ID, kind)
			})
			return
		}
		// Signed-in free users draw from the demo allowance like everyone else.
	}

	h.demoGenerate(w, r, input, kind)
}

func (h *Handler) demoGenerate(w http.ResponseWriter, r *http.Request, input GenerationInput, kind usage.Kind) {
	feature := demo.FeatureBlog
	if kind == usage.KindMovie {
		feature = demo.FeatureMovie
	}

	result, err := h.deps.Demo.CheckAndConsume(r.Context(), clientip.GetIP(r), feature)
	if errors.Is(err, demo.ErrUnavailable) {
		respondError(w, http.StatusServiceUnavailable, CodeDemoUnavailable, "demo generation is currently unavailable")
		return
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if !result.Allowed {
		respondError(w, http.StatusTooManyRequests, CodeDemoLimitExceeded,
			"Daily demo limit reached. Come back tomorrow or subscribe for more.")
		return
	}

	remaining := result.Remaining
	h.generate(w, r, input, generateResponse{Mode: "demo", Remaining: &remaining}, nil)
}

// generate invokes the backend and, on success, runs the post-success hook
// before writing the response.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, input GenerationInput, resp generateResponse, onSuccess func()) {
	comic, err := h.deps.Generator.Generate(r.Context(), input)
	if err != nil {
		h.log.ErrorContext(r.Context(), "generation failed",
			"kind", string(input.Kind), "mode", resp.Mode, "error", err)
		respondError(w, http.StatusBadGateway, CodeInternal, "generation failed")
		return
	}
	if onSuccess != nil {
		onSuccess()
	}

	resp.Comic = comic
	respond(w, http.StatusOK, resp)
}
