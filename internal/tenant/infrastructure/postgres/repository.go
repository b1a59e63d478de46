package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	tenant "balancegrid/internal/tenant/domain"
)

const defaultTenantTable = "tenants"

// TenantRepository is a Postgres implementation for tenants.
type TenantRepository struct {
	db    *sql.DB
	table string
}

// NewTenantRepository constructs a repository.
func NewTenantRepository(db *sql.DB, opts ...Option) *TenantRepository {
	repo := &TenantRepository{db: db, table: defaultTenantTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*TenantRepository)

// WithTable overrides the default table.
func WithTable(table string) Option {
	return func(repo *TenantRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert stores a new tenant.
func (r *TenantRepository) Insert(ctx context.Context, t *tenant.Tenant) error {
	if r == nil || r.db == nil {
		return errors.New("tenant repo: nil db")
	}
	if t == nil {
		return tenant.ErrNilTenant
	}
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, identifier, status, settings, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.table)
	_, err = r.db.ExecContext(ctx, query, t.ID, t.Name, t.Identifier, t.Status, settings, t.CreatedAt, t.UpdatedAt)
	return err
}

// FindByID loads a tenant, returning (nil, nil) when absent.
func (r *TenantRepository) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tenant repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, identifier, status, settings, created_at, updated_at
FROM %s
WHERE id = $1`, r.table)

	var t tenant.Tenant
	var settings []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Identifier, &t.Status, &settings, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// Update overwrites name, status and settings of a stored tenant.
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	if r == nil || r.db == nil {
		return errors.New("tenant repo: nil db")
	}
	if t == nil {
		return tenant.ErrNilTenant
	}
	settings, err := json.Marshal(t.Settings)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
UPDATE %s
SET name = $2, status = $3, settings = $4, updated_at = $5
WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Status, settings, t.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenant.ErrNotFound
	}
	return nil
}
