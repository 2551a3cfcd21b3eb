package auth

import "strings"

// Scope is a capability level granted to an access token.
type Scope string

const (
	ScopeViewer  Scope = "viewer"
	ScopeManager Scope = "manager"
	ScopeAdmin   Scope = "admin"
)

// Role is the stored account role. Free-form role strings are rejected
// where the role is written; resolution below stays total so a stale or
// unknown value degrades to viewer access instead of failing.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// ValidRole reports whether r is one of the closed role values.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// ResolveScopes maps a role to its ordered scope set. The mapping is
// monotonic: admin ⊇ manager ⊇ viewer. Unrecognized roles map to the most
// restrictive set, never to an elevated or empty one.
func ResolveScopes(role Role) []Scope {
	switch Role(strings.ToLower(strings.TrimSpace(string(role)))) {
	case RoleAdmin:
		return []Scope{ScopeViewer, ScopeManager, ScopeAdmin}
	case RoleManager:
		return []Scope{ScopeViewer, ScopeManager}
	default:
		return []Scope{ScopeViewer}
	}
}

// HasScope reports whether the scope set contains s.
func HasScope(scopes []Scope, s Scope) bool {
	for _, sc := range scopes {
		if sc == s {
			return true
		}
	}
	return false
}
