package auth

import (
	"reflect"
	"testing"
)

func TestResolveScopes(t *testing.T) {
	cases := []struct {
		role Role
		want []Scope
	}{
		{RoleAdmin, []Scope{ScopeViewer, ScopeManager, ScopeAdmin}},
		{RoleManager, []Scope{ScopeViewer, ScopeManager}},
		{RoleViewer, []Scope{ScopeViewer}},
		{Role("ADMIN"), []Scope{ScopeViewer, ScopeManager, ScopeAdmin}},
		{Role("  manager "), []Scope{ScopeViewer, ScopeManager}},
		{Role("superuser"), []Scope{ScopeViewer}},
		{Role(""), []Scope{ScopeViewer}},
	}
	for _, tc := range cases {
		got := ResolveScopes(tc.role)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ResolveScopes(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestResolveScopesMonotonic(t *testing.T) {
	viewer := ResolveScopes(RoleViewer)
	manager := ResolveScopes(RoleManager)
	admin := ResolveScopes(RoleAdmin)

	contains := func(outer, inner []Scope) bool {
		for _, s := range inner {
			if !HasScope(outer, s) {
				return false
			}
		}
		return true
	}
	if !contains(manager, viewer) || len(manager) <= len(viewer) {
		t.Errorf("manager scopes %v must be a strict superset of viewer scopes %v", manager, viewer)
	}
	if !contains(admin, manager) || len(admin) <= len(manager) {
		t.Errorf("admin scopes %v must be a strict superset of manager scopes %v", admin, manager)
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleManager, RoleViewer} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false, want true", r)
		}
	}
	for _, r := range []Role{"", "root", "Admin"} {
		if ValidRole(r) {
			t.Errorf("ValidRole(%q) = true, want false", r)
		}
	}
}

func TestHasScope(t *testing.T) {
	scopes := []Scope{ScopeViewer, ScopeManager}
	if !HasScope(scopes, ScopeViewer) {
		t.Error("expected viewer scope present")
	}
	if HasScope(scopes, ScopeAdmin) {
		t.Error("did not expect admin scope")
	}
	if HasScope(nil, ScopeViewer) {
		t.Error("empty set must not contain any scope")
	}
}
