package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	balancegroup "balancegrid/internal/balancegroup/domain"
)

const defaultGroupTable = "balance_groups"

// GroupRepository is a Postgres implementation for balance groups.
type GroupRepository struct {
	db    *sql.DB
	table string
}

// NewGroupRepository constructs a repository.
func NewGroupRepository(db *sql.DB, opts ...Option) *GroupRepository {
	repo := &GroupRepository{db: db, table: defaultGroupTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*GroupRepository)

// WithTable overrides the default table.
func WithTable(table string) Option {
	return func(repo *GroupRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert stores a new group.
func (r *GroupRepository) Insert(ctx context.Context, group *balancegroup.Group) error {
	if r == nil || r.db == nil {
		return errors.New("balance group repo: nil db")
	}
	if group == nil {
		return balancegroup.ErrNilGroup
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, tenant_id, name, start_time, end_time, status, settlement_rule, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		group.ID, group.TenantID, group.Name, group.StartTime, group.EndTime,
		group.Status, group.SettlementRule, group.CreatedAt, group.UpdatedAt,
	)
	return err
}

// FindByID loads a group, returning (nil, nil) when absent.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*balancegroup.Group, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("balance group repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, name, start_time, end_time, status, COALESCE(settlement_rule, ''), created_at, updated_at
FROM %s
WHERE id = $1`, r.table)

	var group balancegroup.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID, &group.TenantID, &group.Name, &group.StartTime, &group.EndTime,
		&group.Status, &group.SettlementRule, &group.CreatedAt, &group.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByTenant returns all groups of a tenant ordered by creation time.
func (r *GroupRepository) ListByTenant(ctx context.Context, tenantID string) ([]balancegroup.Group, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("balance group repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, name, start_time, end_time, status, COALESCE(settlement_rule, ''), created_at, updated_at
FROM %s
WHERE tenant_id = $1
ORDER BY created_at`, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]balancegroup.Group, 0)
	for rows.Next() {
		var group balancegroup.Group
		if err := rows.Scan(
			&group.ID, &group.TenantID, &group.Name, &group.StartTime, &group.EndTime,
			&group.Status, &group.SettlementRule, &group.CreatedAt, &group.UpdatedAt,
		); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// Update overwrites name, status and settlement rule of a stored group.
func (r *GroupRepository) Update(ctx context.Context, group *balancegroup.Group) error {
	if r == nil || r.db == nil {
		return errors.New("balance group repo: nil db")
	}
	if group == nil {
		return balancegroup.ErrNilGroup
	}
	query := fmt.Sprintf(`
UPDATE %s
SET name = $2, status = $3, settlement_rule = NULLIF($4, ''), updated_at = $5
WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.Status, group.SettlementRule, group.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return balancegroup.ErrNotFound
	}
	return nil
}
