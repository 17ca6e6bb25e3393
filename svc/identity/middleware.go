package identity

import "net/http"

// Middleware extracts the trusted edge identity header and, when present,
// injects the resulting Identity into the request context. Requests without
// the header pass through anonymously; handlers that require authentication
// check FromContext themselves.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := FromEmail(r.Header.Get(Header)); !id.IsZero() {
			r = r.WithContext(WithContext(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
