package tenant

import "context"

// Repository persists tenants. FindByID returns (nil, nil) for unknown ids.
type Repository interface {
	Insert(ctx context.Context, t *Tenant) error
	FindByID(ctx context.Context, id string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
}
