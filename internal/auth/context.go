package auth

import "context"

type identityContextKey struct{}

type identity struct {
	tenantID string
	role     Role
	subject  string
}

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, tenantID string, role Role, subject string) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity{tenantID: tenantID, role: role, subject: subject})
}

// TenantIDFromContext returns the authenticated tenant id, or "".
func TenantIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityContextKey{}).(identity)
	return id.tenantID
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) Role {
	id, _ := ctx.Value(identityContextKey{}).(identity)
	return id.role
}

// SubjectFromContext returns the authenticated subject, or "".
func SubjectFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityContextKey{}).(identity)
	return id.subject
}
