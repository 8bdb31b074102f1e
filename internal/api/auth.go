package api

import (
	"net/http"
	"strings"
)

// UserEmailHeader carries the caller's email, set by the auth proxy in
// front of the service.
const UserEmailHeader = "X-User-Email"

// Authorizer decides whether a request may use the admin routes.
type Authorizer func(r *http.Request) bool

// EmailAllowList authorizes requests whose UserEmailHeader is in emails.
// Matching ignores case. An empty list authorizes nobody.
func EmailAllowList(emails []string) Authorizer {
	allowed := make(map[string]bool, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = true
		}
	}
	return func(r *http.Request) bool {
		email := strings.ToLower(strings.TrimSpace(r.Header.Get(UserEmailHeader)))
		return email != "" && allowed[email]
	}
}

// AdminOnly rejects requests the authorizer does not accept: 401 without
// an identity, 403 with one. A nil authorizer rejects everything.
func AdminOnly(auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || !auth(r) {
				if r.Header.Get(UserEmailHeader) == "" {
					writeError(w, "authentication required", http.StatusUnauthorized)
					return
				}
				writeError(w, "admin access required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
