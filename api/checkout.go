package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/inkstrip/inkstrip/pkg/clientip"
	"github.com/inkstrip/inkstrip/svc/billing"
	"github.com/inkstrip/inkstrip/svc/identity"
)

type checkoutRequest struct {
	Plan      string `json:"plan"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	Consent   struct {
		Accepted bool   `json:"accepted"`
		Version  string `json:"version"`
	} `json:"consent"`
}

type sessionResponse struct {
	URL string `json:"url"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeAuthRequired, "sign in to subscribe")
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	url, err := h.deps.Checkout.CreateCheckout(r.Context(), id, billing.CheckoutRequest{
		Plan:      req.Plan,
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		Consent:   billing.ConsentInput{Accepted: req.Consent.Accepted, Version: req.Consent.Version},
	}, billing.RequestMeta{
		ClientIP:  clientip.GetIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respond(w, http.StatusOK, sessionResponse{URL: url})
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

func (h *Handler) handlePortal(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeAuthRequired, "sign in to manage your subscription")
		return
	}

	// The body is optional; an absent returnUrl falls back to the
	// configured default.
	var req portalRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}

	url, err := h.deps.Portal.CreateSession(r.Context(), id, req.ReturnURL)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respond(w, http.StatusOK, sessionResponse{URL: url})
}
