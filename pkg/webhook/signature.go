// Package webhook implements verification of signed webhook notifications
// from the billing processor.
//
// The processor signs each delivery with HMAC-SHA256 over "{timestamp}.{rawBody}"
// and presents the result in a single header of the form
//
//	t=1700000000,v1=5257a869e7...,v1=ab12cd34...
//
// Multiple v1 candidates may be present while the processor rotates signing
// secrets; a delivery is authentic when any candidate matches. Verification
// must run against the raw request body before any JSON parsing touches it.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the maximum accepted age of a signed payload.
// Deliveries older than this are rejected to block replay of captured payloads.
const DefaultTolerance = 5 * time.Minute

// SignatureHeader is the parsed form of the processor's signature header.
type SignatureHeader struct {
	Timestamp  int64
	Signatures []string // candidate v1 hex digests
}

// ParseSignatureHeader parses a "t=...,v1=...[,v1=...]" header value.
func ParseSignatureHeader(value string) (SignatureHeader, error) {
	var h SignatureHeader

	if strings.TrimSpace(value) == "" {
		return h, fmt.Errorf("%w: empty header", ErrInvalidHeader)
	}

	for part := range strings.SplitSeq(value, ",") {
		key, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return SignatureHeader{}, fmt.Errorf("%w: invalid timestamp", ErrInvalidHeader)
			}
			h.Timestamp = ts
		case "v1":
			if val != "" {
				h.Signatures = append(h.Signatures, val)
			}
		}
	}

	if h.Timestamp == 0 || len(h.Signatures) == 0 {
		return SignatureHeader{}, fmt.Errorf("%w: missing timestamp or signature", ErrInvalidHeader)
	}

	return h, nil
}

// VerifySignature validates webhook authenticity and freshness.
// The digest is recomputed over the raw payload bytes and compared against
// every candidate signature in constant time.
func VerifySignature(secret string, payload []byte, header SignatureHeader, tolerance time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidConfiguration)
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(header.Timestamp, 0))
		if age > tolerance {
			return fmt.Errorf("%w: payload is %s old", ErrTimestampOutOfTolerance, age.Truncate(time.Second))
		}
		// Allow modest clock skew but reject far-future timestamps.
		if age < -1*time.Minute {
			return fmt.Errorf("%w: timestamp is in the future", ErrTimestampOutOfTolerance)
		}
	}

	expected := ComputeSignature(secret, header.Timestamp, payload)

	for _, candidate := range header.Signatures {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}

	return ErrSignatureMismatch
}

// ComputeSignature returns the hex HMAC-SHA256 digest of "{timestamp}.{payload}".
// Exposed so tests and outbound signing can produce valid headers.
func ComputeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload builds a complete signature header value for a payload,
// signed at the given time. Used by tests and local tooling.
func SignPayload(secret string, payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeSignature(secret, ts, payload))
}
