package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/inkstrip/inkstrip/svc/billing"
)

// SignatureHeader carries the billing processor's payload signature.
const SignatureHeader = "Billing-Signature"

// maxWebhookBody bounds event payload reads; processor events are small.
const maxWebhookBody = 1 << 20

type webhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// handleWebhook ingests billing processor events. The raw body is read in
// full before any parsing because the signature covers the exact bytes sent.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "failed to read request body")
		return
	}

	result, err := h.deps.Webhooks.HandleEvent(r.Context(), rawBody, r.Header.Get(SignatureHeader))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		respondError(w, http.StatusUnauthorized, CodeAuthRequired, "invalid webhook signature")
		return
	case errors.Is(err, billing.ErrInvalidPayload):
		respondError(w, http.StatusBadRequest, CodeValidation, "malformed webhook payload")
		return
	case errors.Is(err, billing.ErrBillingDisabled):
		respondError(w, http.StatusServiceUnavailable, CodeBillingDisabled, "billing is not available")
		return
	case err != nil:
		// The processor retries on 5xx, so transient storage failures get
		// redelivered instead of dropped.
		h.log.ErrorContext(r.Context(), "webhook processing failed", "error", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal error")
		return
	}

	respond(w, http.StatusOK, webhookResponse{Received: true, Duplicate: result.Duplicate})
}
