// Package tokenauth implements the Hub's three disjoint bearer-token sets
// (rpc_api_tokens, collector_tokens, processor_tokens), distinct from the
// JWT/role dashboard auth in the auth package.
package tokenauth

import (
	"net/http"
	"strings"
)

// Set is a configured bearer-token allowlist for one of the Hub's external
// surfaces. An empty set forbids the endpoint entirely (deny_on_empty_config),
// rather than falling open.
type Set map[string]struct{}

// NewSet builds a Set from a token list, skipping blank entries.
func NewSet(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		s[t] = struct{}{}
	}
	return s
}

// Allows reports whether token is a member of the set.
func (s Set) Allows(token string) bool {
	if len(s) == 0 || token == "" {
		return false
	}
	_, ok := s[token]
	return ok
}

// FromHeader extracts a bearer token from the Authorization header, or the
// empty string if the header is absent or malformed.
func FromHeader(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// Require wraps next with a check against set, rejecting with 401 on a
// missing/unknown token (which, for an empty set, is every request).
func Require(set Set, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !set.Allows(FromHeader(r)) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
