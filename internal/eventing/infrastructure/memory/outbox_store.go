package memory

import (
	"context"
	"sync"

	"balancegrid/internal/eventing"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
	statusFailed  = "failed"
)

type outboxRecord struct {
	id       string
	envelope eventing.Envelope
	status   string
}

// OutboxStore is an in-memory outbox for dev mode and tests. Failed
// records stay claimable so delivery remains at-least-once.
type OutboxStore struct {
	mu      sync.Mutex
	records []*outboxRecord
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{}
}

// Insert appends a pending record and returns its id.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	s.mu.Lock()
	s.records = append(s.records, &outboxRecord{id: env.EventID, envelope: env, status: statusPending})
	s.mu.Unlock()
	return env.EventID, nil
}

// ListPending returns up to limit records awaiting dispatch, including
// previously failed ones.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make([]eventing.OutboxRecord, 0, limit)
	for _, record := range s.records {
		if record.status == statusSent {
			continue
		}
		pending = append(pending, eventing.OutboxRecord{ID: record.id, Envelope: record.envelope})
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

// MarkSent marks a record as delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, statusSent)
}

// MarkFailed marks a record as failed; it stays claimable.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, statusFailed)
}

func (s *OutboxStore) setStatus(ctx context.Context, id, status string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.id == id {
			record.status = status
			return nil
		}
	}
	return nil
}
