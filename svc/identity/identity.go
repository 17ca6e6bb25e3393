// Package identity models the pre-verified identity assertion this service
// receives from the trusted edge.
//
// Authentication itself is delegated: an access proxy in front of the service
// validates the user's session and forwards the verified email address in the
// X-Authenticated-Email header. This forwarded-header path is the single
// trust boundary; the service never parses or verifies tokens itself.
package identity

import "strings"

// Header is the trusted edge header carrying the verified user email.
const Header = "X-Authenticated-Email"

// Identity is a verified user identity. The user ID is the normalized email
// address, which is stable across sessions.
type Identity struct {
	ID    string
	Email string
}

// FromEmail builds an Identity from a verified email address.
// Returns a zero Identity if the email is empty after trimming.
func FromEmail(email string) Identity {
	email = strings.TrimSpace(email)
	if email == "" {
		return Identity{}
	}
	return Identity{ID: email, Email: email}
}

// IsZero reports whether the identity carries no verified user.
func (id Identity) IsZero() bool {
	return id.Email == ""
}

// Matches reports whether the given email refers to this identity.
// Comparison is case-insensitive after trimming, so a checkout request cannot
// attribute a purchase to a differently-cased account.
func (id Identity) Matches(email string) bool {
	if id.IsZero() {
		return false
	}
	return normalize(id.Email) == normalize(email)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
