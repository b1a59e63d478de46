package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"balancegrid/internal/eventing"
)

const defaultOutboxTable = "event_outbox"

// OutboxStore is a Postgres implementation of the event outbox.
type OutboxStore struct {
	db    *sql.DB
	table string
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB, opts ...OutboxOption) *OutboxStore {
	store := &OutboxStore{db: db, table: defaultOutboxTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// OutboxOption configures the outbox store.
type OutboxOption func(*OutboxStore)

// WithOutboxTable overrides the table name.
func WithOutboxTable(table string) OutboxOption {
	return func(store *OutboxStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Insert appends a pending outbox record.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("outbox store: nil db")
	}
	if env.EventID == "" {
		return "", errors.New("outbox store: empty event id")
	}
	envelope, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (event_id, event_type, tenant_id, envelope, status, occurred_at, created_at)
VALUES ($1, $2, $3, $4, 'pending', $5, $6)`, s.table)
	_, err = s.db.ExecContext(ctx, query, env.EventID, env.EventType, env.TenantID, envelope, env.OccurredAt, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return env.EventID, nil
}

// ListPending claims up to limit undelivered records, oldest first.
// Failed records are retried alongside fresh ones.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`
SELECT event_id, envelope
FROM %s
WHERE status IN ('pending', 'failed')
ORDER BY created_at
LIMIT $1`, s.table)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]eventing.OutboxRecord, 0, limit)
	for rows.Next() {
		var id string
		var envelope []byte
		if err := rows.Scan(&id, &envelope); err != nil {
			return nil, err
		}
		var env eventing.Envelope
		if err := json.Unmarshal(envelope, &env); err != nil {
			return nil, err
		}
		records = append(records, eventing.OutboxRecord{ID: id, Envelope: env})
	}
	return records, rows.Err()
}

// MarkSent marks a record as delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "sent")
}

// MarkFailed marks a record as failed; it stays claimable for retry.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "failed")
}

func (s *OutboxStore) setStatus(ctx context.Context, id, status string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = $3 WHERE event_id = $1`, s.table)
	_, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	return err
}
