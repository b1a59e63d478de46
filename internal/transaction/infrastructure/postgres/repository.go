package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	transaction "balancegrid/internal/transaction/domain"
)

const defaultTransactionTable = "transactions"

// TransactionRepository is a Postgres implementation for transactions.
type TransactionRepository struct {
	db    *sql.DB
	table string
}

// NewTransactionRepository constructs a repository.
func NewTransactionRepository(db *sql.DB, opts ...Option) *TransactionRepository {
	repo := &TransactionRepository{db: db, table: defaultTransactionTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*TransactionRepository)

// WithTable overrides the default table.
func WithTable(table string) Option {
	return func(repo *TransactionRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const transactionColumns = "id, tenant_id, name, source_id, destination_id, start_time, end_time, energy_amount, status, created_at, updated_at"

// Insert stores a new transaction.
func (r *TransactionRepository) Insert(ctx context.Context, t *transaction.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
	}
	if t == nil {
		return transaction.ErrNilTransaction
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, r.table, transactionColumns)
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.TenantID, t.Name, t.SourceID, t.DestinationID,
		t.StartTime, t.EndTime, t.EnergyAmount, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// FindByID loads a transaction, returning (nil, nil) when absent.
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, transactionColumns, r.table)

	var t transaction.Transaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.TenantID, &t.Name, &t.SourceID, &t.DestinationID,
		&t.StartTime, &t.EndTime, &t.EnergyAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update overwrites status and timestamp of a stored transaction.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
	}
	if t == nil {
		return transaction.ErrNilTransaction
	}
	query := fmt.Sprintf(`
UPDATE %s
SET name = $2, status = $3, updated_at = $4
WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Status, t.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return transaction.ErrNotFound
	}
	return nil
}

// List returns all transactions matching the query ordered by start time.
func (r *TransactionRepository) List(ctx context.Context, q transaction.Query) ([]transaction.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}

	conditions := []string{"tenant_id = $1"}
	args := []any{q.TenantID}
	if q.GroupID != "" {
		args = append(args, q.GroupID)
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, fmt.Sprintf("(source_id = %s OR destination_id = %s)", placeholder, placeholder))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if !q.WindowStart.IsZero() && !q.WindowEnd.IsZero() {
		args = append(args, q.WindowEnd)
		conditions = append(conditions, "start_time < $"+strconv.Itoa(len(args)))
		args = append(args, q.WindowStart)
		conditions = append(conditions, "end_time > $"+strconv.Itoa(len(args)))
	}

	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE %s
ORDER BY start_time`, transactionColumns, r.table, strings.Join(conditions, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]transaction.Transaction, 0)
	for rows.Next() {
		var t transaction.Transaction
		if err := rows.Scan(
			&t.ID, &t.TenantID, &t.Name, &t.SourceID, &t.DestinationID,
			&t.StartTime, &t.EndTime, &t.EnergyAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		matches = append(matches, t)
	}
	return matches, rows.Err()
}
