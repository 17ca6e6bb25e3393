package usage

import "fmt"

// Kind identifies what was generated.
type Kind string

const (
	KindBlog  Kind = "blog"
	KindMovie Kind = "movie"
)

// ParseKind validates a usage kind from user input.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBlog:
		return KindBlog, nil
	case KindMovie:
		return KindMovie, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// User is the subscriber record. The ID is the verified email address, so
// users are created lazily on first authenticated activity. Plan and
// subscription fields are mutated only by the webhook processor; the billing
// customer ID is set once by the checkout flow.
type User struct {
	ID                    string
	Email                 string
	Plan                  Plan
	BillingCustomerID     string
	BillingSubscriptionID string
}

// Quota is the outcome of a monthly allowance check.
type Quota struct {
	Plan      Plan
	Used      int
	Limit     int
	Remaining int
	Allowed   bool
}

// Totals breaks the month's consumption down by kind.
type Totals struct {
	Blog  int
	Movie int
	Total int
}

// Snapshot is the full subscription view served to the account UI.
type Snapshot struct {
	Plan               Plan
	Limit              int
	Usage              Totals
	Remaining          int
	Email              string
	HasBillingCustomer bool
	UserKnown          bool
}
