package memory

import (
	"context"
	"sort"
	"sync"

	balancegroup "balancegrid/internal/balancegroup/domain"
)

// GroupRepository is an in-memory repository for balance groups.
type GroupRepository struct {
	mu   sync.RWMutex
	data map[string]*balancegroup.Group
}

// NewGroupRepository constructs a repository.
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{data: make(map[string]*balancegroup.Group)}
}

// Insert stores a new group.
func (r *GroupRepository) Insert(ctx context.Context, group *balancegroup.Group) error {
	_ = ctx
	if group == nil {
		return balancegroup.ErrNilGroup
	}
	copy := *group
	r.mu.Lock()
	r.data[group.ID] = &copy
	r.mu.Unlock()
	return nil
}

// FindByID loads a group, returning (nil, nil) when absent.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*balancegroup.Group, error) {
	_ = ctx
	r.mu.RLock()
	group := r.data[id]
	r.mu.RUnlock()
	if group == nil {
		return nil, nil
	}
	copy := *group
	return &copy, nil
}

// ListByTenant returns all groups of a tenant ordered by creation time.
func (r *GroupRepository) ListByTenant(ctx context.Context, tenantID string) ([]balancegroup.Group, error) {
	_ = ctx
	r.mu.RLock()
	groups := make([]balancegroup.Group, 0)
	for _, group := range r.data {
		if group.TenantID == tenantID {
			groups = append(groups, *group)
		}
	}
	r.mu.RUnlock()
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
	return groups, nil
}

// Update overwrites a stored group.
func (r *GroupRepository) Update(ctx context.Context, group *balancegroup.Group) error {
	_ = ctx
	if group == nil {
		return balancegroup.ErrNilGroup
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[group.ID]; !ok {
		return balancegroup.ErrNotFound
	}
	copy := *group
	r.data[group.ID] = &copy
	return nil
}
