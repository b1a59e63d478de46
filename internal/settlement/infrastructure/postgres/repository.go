package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	settlement "balancegrid/internal/settlement/domain"
)

const defaultEntryTable = "settlement_entries"

// EntryRepository is a Postgres implementation for settlement entries.
// The table carries a unique index on (transaction_id, balance_group_id,
// interval_start); InsertBatchIfAbsent leans on it to stay race-free.
type EntryRepository struct {
	db    *sql.DB
	table string
}

// NewEntryRepository constructs a repository.
func NewEntryRepository(db *sql.DB, opts ...Option) *EntryRepository {
	repo := &EntryRepository{db: db, table: defaultEntryTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*EntryRepository)

// WithTable overrides the default table.
func WithTable(table string) Option {
	return func(repo *EntryRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const entryColumns = "id, transaction_id, balance_group_id, target_group_id, tenant_id, energy_amount, status, interval_start, interval_end, created_at, updated_at"

// FindByTransaction returns the stored entries for a transaction.
func (r *EntryRepository) FindByTransaction(ctx context.Context, transactionID, tenantID string) ([]settlement.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settlement repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE transaction_id = $1 AND tenant_id = $2
ORDER BY interval_start, balance_group_id`, entryColumns, r.table)
	return r.query(ctx, query, transactionID, tenantID)
}

// InsertBatchIfAbsent inserts the batch in one transaction with ON
// CONFLICT DO NOTHING on the per-interval uniqueness index, then
// re-reads the stored set. A concurrent duplicate calculation loses the
// conflict race and observes the winner's entries.
func (r *EntryRepository) InsertBatchIfAbsent(ctx context.Context, transactionID, tenantID string, entries []settlement.Entry) ([]settlement.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settlement repo: nil db")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (transaction_id, balance_group_id, interval_start) DO NOTHING`, r.table, entryColumns)
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert,
			entry.ID, entry.TransactionID, entry.BalanceGroupID, entry.TargetGroupID, entry.TenantID,
			entry.EnergyAmount, entry.Status, entry.IntervalStart, entry.IntervalEnd, entry.CreatedAt, entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.FindByTransaction(ctx, transactionID, tenantID)
}

// FinalizeByTransaction moves every provisional entry of the transaction
// to final and returns the number of updated rows.
func (r *EntryRepository) FinalizeByTransaction(ctx context.Context, transactionID, tenantID string, at time.Time) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("settlement repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET status = $4, updated_at = $3
WHERE transaction_id = $1 AND tenant_id = $2 AND status = $5`, r.table)
	result, err := r.db.ExecContext(ctx, query, transactionID, tenantID, at, settlement.StatusFinal, settlement.StatusProvisional)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// QueryWindow returns entries of a balance group whose interval lies
// within [start, end], ordered by interval start.
func (r *EntryRepository) QueryWindow(ctx context.Context, balanceGroupID, tenantID string, start, end time.Time) ([]settlement.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settlement repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE balance_group_id = $1 AND tenant_id = $2
  AND interval_start >= $3 AND interval_end <= $4
ORDER BY interval_start`, entryColumns, r.table)
	return r.query(ctx, query, balanceGroupID, tenantID, start, end)
}

func (r *EntryRepository) query(ctx context.Context, query string, args ...any) ([]settlement.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]settlement.Entry, 0)
	for rows.Next() {
		var entry settlement.Entry
		if err := rows.Scan(
			&entry.ID, &entry.TransactionID, &entry.BalanceGroupID, &entry.TargetGroupID, &entry.TenantID,
			&entry.EnergyAmount, &entry.Status, &entry.IntervalStart, &entry.IntervalEnd, &entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
