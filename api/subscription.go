package api

import (
	"net/http"

	"github.com/inkstrip/inkstrip/svc/identity"
	"github.com/inkstrip/inkstrip/svc/usage"
)

type subscriptionUser struct {
	Email             string `json:"email"`
	HasBillingAccount bool   `json:"hasBillingAccount"`
}

// subscriptionLimits carries the per-kind monthly allowances. Blog and movie
// draw from the shared monthly pool, so all three fields hold the same number.
type subscriptionLimits struct {
	Blog    int `json:"blog"`
	Movie   int `json:"movie"`
	Monthly int `json:"monthly"`
}

type subscriptionUsage struct {
	Blog  int `json:"blog"`
	Movie int `json:"movie"`
	Total int `json:"total"`
}

type subscriptionRemaining struct {
	Blog  int `json:"blog"`
	Movie int `json:"movie"`
	Total int `json:"total"`
}

type subscriptionResponse struct {
	Plan      string                `json:"plan"`
	Limits    subscriptionLimits    `json:"limits"`
	Usage     subscriptionUsage     `json:"usage"`
	Remaining subscriptionRemaining `json:"remaining"`
	User      *subscriptionUser     `json:"user"`
}

// handleSubscription returns the caller's plan and this month's consumption.
// Anonymous callers get the free-plan zero shape rather than an error so the
// pricing page renders without an auth round trip.
func (h *Handler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusOK, subscriptionResponse{
			Plan: string(usage.PlanFree),
			User: nil,
		})
		return
	}

	snap, err := h.deps.Usage.Snapshot(r.Context(), id.ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	email := snap.Email
	if email == "" {
		email = id.Email
	}

	respond(w, http.StatusOK, subscriptionResponse{
		Plan:      string(snap.Plan),
		Limits:    subscriptionLimits{Blog: snap.Limit, Movie: snap.Limit, Monthly: snap.Limit},
		Usage:     subscriptionUsage{Blog: snap.Usage.Blog, Movie: snap.Usage.Movie, Total: snap.Usage.Total},
		Remaining: subscriptionRemaining{Blog: snap.Remaining, Movie: snap.Remaining, Total: snap.Remaining},
		User:      &subscriptionUser{Email: email, HasBillingAccount: snap.HasBillingCustomer},
	})
}
