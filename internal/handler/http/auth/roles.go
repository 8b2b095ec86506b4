// Package auth gates the Hub's operator-facing read surface (statistics,
// archived-item views) behind JWT role checks. It is distinct from
// tokenauth, which implements the static bearer-token sets of the
// submission and RPC endpoints.
package auth

import "strings"

// Role constants used in JWT claims and permission checks.
const (
	// RoleAdmin has full access to the operator surface
	RoleAdmin = "admin"
	// RoleViewer has read-only access to the dashboard endpoints
	RoleViewer = "viewer"
)

// Permission defines the allowed operations for a role: the HTTP methods
// it may use and the path patterns it may reach.
type Permission struct {
	AllowedMethods []string
	// AllowedPaths supports a trailing "/*" wildcard: "/statistics/*"
	// matches /statistics and everything below it.
	AllowedPaths []string
}

// RolePermissions maps each role to its allowed operator-surface access.
// Admin can reach everything; viewer is restricted to read-only dashboard
// reads over statistics and archived intelligence.
var RolePermissions = map[string]Permission{
	RoleAdmin: {
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedPaths:   []string{"/*"},
	},
	RoleViewer: {
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedPaths: []string{
			"/statistics/*",
			"/intelligence/*",
		},
	},
}

// checkRolePermission reports whether role may perform method on path.
// Unknown or empty roles are always denied.
func checkRolePermission(role, method, path string) bool {
	if role == "" {
		return false
	}
	perm, exists := RolePermissions[role]
	if !exists {
		return false
	}

	methodAllowed := false
	for _, m := range perm.AllowedMethods {
		if m == method {
			methodAllowed = true
			break
		}
	}
	if !methodAllowed {
		return false
	}
	return matchesPathPattern(path, perm.AllowedPaths)
}

// matchesPathPattern checks path against each pattern; a trailing "/*"
// makes the pattern match its prefix and every subpath.
func matchesPathPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "/*" {
			return true
		}
		if strings.HasSuffix(pattern, "/*") {
			prefix := strings.TrimSuffix(pattern, "/*")
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}
