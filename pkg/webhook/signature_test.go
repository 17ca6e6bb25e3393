package webhook_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstrip/inkstrip/pkg/webhook"
)

func TestParseSignatureHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		wantErr   error
		wantTS    int64
		wantCount int
	}{
		{
			name:      "single signature",
			value:     "t=1700000000,v1=abcdef",
			wantTS:    1700000000,
			wantCount: 1,
		},
		{
			name:      "multiple v1 candidates during rotation",
			value:     "t=1700000000,v1=aaa,v1=bbb",
			wantTS:    1700000000,
			wantCount: 2,
		},
		{
			name:      "whitespace between parts",
			value:     "t=1700000000, v1=abcdef",
			wantTS:    1700000000,
			wantCount: 1,
		},
		{
			name:      "unknown keys ignored",
			value:     "t=1700000000,v0=legacy,v1=abcdef",
			wantTS:    1700000000,
			wantCount: 1,
		},
		{
			name:    "empty header",
			value:   "",
			wantErr: webhook.ErrInvalidHeader,
		},
		{
			name:    "missing timestamp",
			value:   "v1=abcdef",
			wantErr: webhook.ErrInvalidHeader,
		},
		{
			name:    "missing signature",
			value:   "t=1700000000",
			wantErr: webhook.ErrInvalidHeader,
		},
		{
			name:    "non-numeric timestamp",
			value:   "t=yesterday,v1=abcdef",
			wantErr: webhook.ErrInvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := webhook.ParseSignatureHeader(tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTS, h.Timestamp)
			assert.Len(t, h.Signatures, tt.wantCount)
		})
	}
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test_secret"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	t.Run("valid signature", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now()))
		require.NoError(t, err)

		assert.NoError(t, webhook.VerifySignature(secret, payload, header, webhook.DefaultTolerance))
	})

	t.Run("any matching candidate accepts", func(t *testing.T) {
		t.Parallel()

		ts := time.Now().Unix()
		good := webhook.ComputeSignature(secret, ts, payload)
		value := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts, "deadbeef", good)

		header, err := webhook.ParseSignatureHeader(value)
		require.NoError(t, err)

		assert.NoError(t, webhook.VerifySignature(secret, payload, header, webhook.DefaultTolerance))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload("other_secret", payload, time.Now()))
		require.NoError(t, err)

		err = webhook.VerifySignature(secret, payload, header, webhook.DefaultTolerance)
		require.ErrorIs(t, err, webhook.ErrSignatureMismatch)
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now()))
		require.NoError(t, err)

		err = webhook.VerifySignature(secret, []byte(`{"id":"evt_2"}`), header, webhook.DefaultTolerance)
		require.ErrorIs(t, err, webhook.ErrSignatureMismatch)
	})

	t.Run("stale timestamp rejected", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now().Add(-10*time.Minute)))
		require.NoError(t, err)

		err = webhook.VerifySignature(secret, payload, header, webhook.DefaultTolerance)
		require.ErrorIs(t, err, webhook.ErrTimestampOutOfTolerance)
	})

	t.Run("future timestamp rejected", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now().Add(10*time.Minute)))
		require.NoError(t, err)

		err = webhook.VerifySignature(secret, payload, header, webhook.DefaultTolerance)
		require.ErrorIs(t, err, webhook.ErrTimestampOutOfTolerance)
	})

	t.Run("zero tolerance disables freshness check", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now().Add(-24*time.Hour)))
		require.NoError(t, err)

		assert.NoError(t, webhook.VerifySignature(secret, payload, header, 0))
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now()))
		require.NoError(t, err)

		err = webhook.VerifySignature("", payload, header, webhook.DefaultTolerance)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		t.Parallel()

		header, err := webhook.ParseSignatureHeader(webhook.SignPayload(secret, payload, time.Now()))
		require.NoError(t, err)

		err = webhook.VerifySignature(secret, nil, header, webhook.DefaultTolerance)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
	})
}
