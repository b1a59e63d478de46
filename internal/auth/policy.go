package auth

import (
	"net/http"
	"strings"
)

// Policy decides which requests are exempt from auth and which role a
// request requires.
type Policy interface {
	IsExempt(r *http.Request) bool
	RequiredRole(r *http.Request) (Role, bool)
}

// DefaultPolicy exempts operational endpoints and requires viewer for
// reads, operator for mutations. Extra exemptions and per-prefix role
// overrides can be supplied.
type DefaultPolicy struct {
	exemptPaths map[string]struct{}
	prefixRoles map[string]Role
}

// NewDefaultPolicy constructs a policy. Both arguments may be nil.
func NewDefaultPolicy(extraExempt []string, prefixRoles map[string]Role) *DefaultPolicy {
	exempt := map[string]struct{}{
		"/healthz": {},
		"/metrics": {},
	}
	for _, path := range extraExempt {
		exempt[path] = struct{}{}
	}
	return &DefaultPolicy{exemptPaths: exempt, prefixRoles: prefixRoles}
}

// IsExempt reports whether the request bypasses auth entirely.
func (p *DefaultPolicy) IsExempt(r *http.Request) bool {
	if p == nil || r == nil {
		return false
	}
	_, ok := p.exemptPaths[r.URL.Path]
	return ok
}

// RequiredRole returns the role the request needs.
func (p *DefaultPolicy) RequiredRole(r *http.Request) (Role, bool) {
	if p == nil || r == nil {
		return "", false
	}
	for prefix, role := range p.prefixRoles {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return role, true
		}
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return RoleViewer, true
	default:
		return RoleOperator, true
	}
}
