package billing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstrip/inkstrip/pkg/webhook"
	"github.com/inkstrip/inkstrip/svc/billing"
	"github.com/inkstrip/inkstrip/svc/usage"
)

const webhookSecret = "whsec_test_secret"

func processorConfig() billing.Config {
	return billing.Config{
		Enabled:       true,
		WebhookSecret: webhookSecret,
		LitePriceID:   "price_lite_123",
		ProPriceID:    "price_pro_456",
	}
}

func signedHeader(t *testing.T, payload []byte) string {
	t.Helper()
	return webhook.SignPayload(webhookSecret, payload, time.Now())
}

func checkoutCompletedEvent(eventID string) []byte {
	return fmt.Appendf(nil, `{
		"id": %q,
		"type": "checkout.session.completed",
		"created": %d,
		"data": {"object": {
			"customer": "cus_1",
			"subscription": "sub_1",
			"metadata": {"user_id": "alice@example.com", "plan": "lite"}
		}}
	}`, eventID, time.Now().Unix())
}

func subscriptionEvent(eventID, eventType, status, priceID string) []byte {
	return fmt.Appendf(nil, `{
		"id": %q,
		"type": %q,
		"created": %d,
		"data": {"object": {
			"id": "sub_1",
			"customer": "cus_1",
			"status": %q,
			"items": {"data": [{"price": {"id": %q}}]}
		}}
	}`, eventID, eventType, time.Now().Unix(), status, priceID)
}

func TestProcessor_HandleEvent_Verification(t *testing.T) {
	t.Parallel()

	t.Run("missing webhook secret", func(t *testing.T) {
		t.Parallel()

		cfg := processorConfig()
		cfg.WebhookSecret = ""
		processor := billing.NewProcessor(cfg, newFakeStore(), testLogger())

		_, err := processor.HandleEvent(t.Context(), checkoutCompletedEvent("evt_1"), "t=1,v1=abc")
		require.ErrorIs(t, err, billing.ErrBillingDisabled)
	})

	t.Run("malformed signature header", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		_, err := processor.HandleEvent(t.Context(), checkoutCompletedEvent("evt_1"), "not-a-header")
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
		assert.Empty(t, store.events, "nothing may be recorded before verification")
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := checkoutCompletedEvent("evt_1")
		header := webhook.SignPayload("whsec_other", payload, time.Now())

		_, err := processor.HandleEvent(t.Context(), payload, header)
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
		assert.Empty(t, store.events)
		assert.Zero(t, store.setPlanCalls)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := checkoutCompletedEvent("evt_1")
		header := signedHeader(t, payload)
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-2] = 'X'

		_, err := processor.HandleEvent(t.Context(), tampered, header)
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		t.Parallel()

		processor := billing.NewProcessor(processorConfig(), newFakeStore(), testLogger())

		payload := checkoutCompletedEvent("evt_1")
		header := webhook.SignPayload(webhookSecret, payload, time.Now().Add(-10*time.Minute))

		_, err := processor.HandleEvent(t.Context(), payload, header)
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("valid signature with malformed body", func(t *testing.T) {
		t.Parallel()

		processor := billing.NewProcessor(processorConfig(), newFakeStore(), testLogger())

		payload := []byte(`{"id": "evt_1", "type":`)
		_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.ErrorIs(t, err, billing.ErrInvalidPayload)
	})

	t.Run("missing event id", func(t *testing.T) {
		t.Parallel()

		processor := billing.NewProcessor(processorConfig(), newFakeStore(), testLogger())

		payload := []byte(`{"type": "checkout.session.completed", "data": {"object": {}}}`)
		_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.ErrorIs(t, err, billing.ErrInvalidPayload)
	})
}

func TestProcessor_HandleEvent_Effects(t *testing.T) {
	t.Parallel()

	t.Run("checkout completed activates plan", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanFree})
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := checkoutCompletedEvent("evt_1")
		result, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.Equal(t, "evt_1", result.EventID)
		assert.Equal(t, "checkout.session.completed", result.EventType)

		user := store.user("alice@example.com")
		assert.Equal(t, usage.PlanLite, user.Plan)
		assert.Equal(t, "cus_1", user.BillingCustomerID)
		assert.Equal(t, "sub_1", user.BillingSubscriptionID)
	})

	t.Run("redelivery is a no-op", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanFree})
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := checkoutCompletedEvent("evt_1")
		header := signedHeader(t, payload)

		first, err := processor.HandleEvent(t.Context(), payload, header)
		require.NoError(t, err)
		assert.False(t, first.Duplicate)

		second, err := processor.HandleEvent(t.Context(), payload, header)
		require.NoError(t, err)
		assert.True(t, second.Duplicate)

		assert.Equal(t, 1, store.setPlanCalls, "effects run once per distinct event")
		assert.Equal(t, usage.PlanLite, store.user("alice@example.com").Plan)
	})

	t.Run("checkout completed for unknown user is logged and processed", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := checkoutCompletedEvent("evt_1")
		result, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.Contains(t, store.events, "evt_1")
	})

	t.Run("subscription updated to active pro price", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanLite, BillingCustomerID: "cus_1"})
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := subscriptionEvent("evt_2", "customer.subscription.updated", "active", "price_pro_456")
		_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)

		user := store.user("alice@example.com")
		assert.Equal(t, usage.PlanPro, user.Plan)
		assert.Equal(t, "sub_1", user.BillingSubscriptionID)
	})

	t.Run("subscription updated to past_due downgrades", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanPro, BillingCustomerID: "cus_1", BillingSubscriptionID: "sub_1"})
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := subscriptionEvent("evt_3", "customer.subscription.updated", "past_due", "price_pro_456")
		_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)

		user := store.user("alice@example.com")
		assert.Equal(t, usage.PlanFree, user.Plan)
		assert.Empty(t, user.BillingSubscriptionID)
	})

	t.Run("subscription deleted downgrades", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanLite, BillingCustomerID: "cus_1", BillingSubscriptionID: "sub_1"})
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := subscriptionEvent("evt_4", "customer.subscription.deleted", "canceled", "price_lite_123")
		_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)

		assert.Equal(t, usage.PlanFree, store.user("alice@example.com").Plan)
	})

	t.Run("subscription event for unknown customer is processed", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := subscriptionEvent("evt_5", "customer.subscription.deleted", "canceled", "price_lite_123")
		result, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.Zero(t, store.resetPlanCalls)
	})

	t.Run("unhandled event type is recorded without effects", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := fmt.Appendf(nil, `{"id": "evt_6", "type": "invoice.paid", "created": %d, "data": {"object": {}}}`, time.Now().Unix())
		result, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.Contains(t, store.events, "evt_6")
		assert.Zero(t, store.setPlanCalls)
		assert.Zero(t, store.resetPlanCalls)
	})

	t.Run("full lifecycle", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanFree})
		processor := billing.NewProcessor(processorConfig(), store, testLogger())

		payload := checkoutCompletedEvent("evt_a")
		_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.Equal(t, usage.PlanLite, store.user("alice@example.com").Plan)

		payload = subscriptionEvent("evt_b", "customer.subscription.updated", "active", "price_pro_456")
		_, err = processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.Equal(t, usage.PlanPro, store.user("alice@example.com").Plan)

		payload = subscriptionEvent("evt_c", "customer.subscription.deleted", "canceled", "price_pro_456")
		_, err = processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
		require.NoError(t, err)
		assert.Equal(t, usage.PlanFree, store.user("alice@example.com").Plan)
	})
}

func TestProcessor_PlanFromPriceHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		priceID string
		want    usage.Plan
	}{
		{"configured lite price", "price_lite_123", usage.PlanLite},
		{"configured pro price", "price_pro_456", usage.PlanPro},
		{"unconfigured price named lite", "price_LiteMonthly_999", usage.PlanLite},
		{"unconfigured price defaults to pro", "price_unknown_999", usage.PlanPro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			store.addUser(usage.User{ID: "alice@example.com", Email: "alice@example.com", Plan: usage.PlanFree, BillingCustomerID: "cus_1"})
			processor := billing.NewProcessor(processorConfig(), store, testLogger())

			payload := subscriptionEvent("evt_p", "customer.subscription.updated", "active", tt.priceID)
			_, err := processor.HandleEvent(t.Context(), payload, signedHeader(t, payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.user("alice@example.com").Plan)
		})
	}
}
