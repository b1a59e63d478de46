package memory

import (
	"context"
	"sync"

	tenant "balancegrid/internal/tenant/domain"
)

// TenantRepository is an in-memory repository for tenants.
type TenantRepository struct {
	mu   sync.RWMutex
	data map[string]*tenant.Tenant
}

// NewTenantRepository constructs a repository.
func NewTenantRepository() *TenantRepository {
	return &TenantRepository{data: make(map[string]*tenant.Tenant)}
}

// Insert stores a new tenant.
func (r *TenantRepository) Insert(ctx context.Context, t *tenant.Tenant) error {
	_ = ctx
	if t == nil {
		return tenant.ErrNilTenant
	}
	copy := *t
	r.mu.Lock()
	r.data[t.ID] = &copy
	r.mu.Unlock()
	return nil
}

// FindByID loads a tenant, returning (nil, nil) when absent.
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	_ = ctx
	r.mu.RLock()
	t := r.data[id]
	r.mu.RUnlock()
	if t == nil {
		return nil, nil
	}
	copy := *t
	return &copy, nil
}

// Update overwrites a stored tenant.
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	_ = ctx
	if t == nil {
		return tenant.ErrNilTenant
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[t.ID]; !ok {
		return tenant.ErrNotFound
	}
	copy := *t
	r.data[t.ID] = &copy
	return nil
}
