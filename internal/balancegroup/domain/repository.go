package balancegroup

import "context"

// Repository persists balance groups. FindByID returns (nil, nil) when
// the id is unknown; tenant scoping is applied by the application layer.
type Repository interface {
	Insert(ctx context.Context, group *Group) error
	FindByID(ctx context.Context, id string) (*Group, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Group, error)
	Update(ctx context.Context, group *Group) error
}
