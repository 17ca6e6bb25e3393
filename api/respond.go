package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkstrip/inkstrip/svc/billing"
	"github.com/inkstrip/inkstrip/svc/demo"
	"github.com/inkstrip/inkstrip/svc/usage"
)

// Stable machine-readable error codes. Clients branch on these, the message
// is presentation only.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeDemoLimitExceeded  = "DEMO_LIMIT_EXCEEDED"
	CodeUsageLimitExceeded = "USAGE_LIMIT_EXCEEDED"
	CodeDemoUnavailable    = "DEMO_UNAVAILABLE"
	CodeBillingDisabled    = "BILLING_DISABLED"
	CodeInternal           = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respond(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// respondServiceError maps domain errors onto the error taxonomy. Unmapped
// errors become a generic 500; their detail stays in the server log only.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrBillingDisabled), errors.Is(err, billing.ErrPriceNotConfigured):
		respondError(w, http.StatusServiceUnavailable, CodeBillingDisabled, "billing is not available")
	// AUTH_REQUIRED covers both missing and non-matching identity; the
	// status distinguishes the two (401 at the handlers, 403 here).
	case errors.Is(err, billing.ErrIdentityMismatch):
		respondError(w, http.StatusForbidden, CodeAuthRequired, "request does not match the authenticated user")
	case errors.Is(err, billing.ErrInvalidPlan):
		respondError(w, http.StatusBadRequest, CodeValidation, "plan must be lite or pro")
	case errors.Is(err, billing.ErrConsentRequired):
		respondError(w, http.StatusBadRequest, CodeValidation, "terms must be accepted before checkout")
	case errors.Is(err, billing.ErrNoBillingCustomer):
		respondError(w, http.StatusBadRequest, CodeValidation, "no billing account exists for this user yet")
	case errors.Is(err, demo.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, CodeDemoUnavailable, "demo generation is currently unavailable")
	case errors.Is(err, demo.ErrUnknownFeature), errors.Is(err, usage.ErrUnknownKind):
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// decodeJSON reads a bounded JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(dst)
}
