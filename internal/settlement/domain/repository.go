package settlement

import (
	"context"
	"time"
)

// Repository persists settlement entries.
//
// InsertBatchIfAbsent is the concurrency guard for idempotent
// calculation: the batch is inserted only when no entries exist yet for
// the transaction, and the check-then-insert sequence is atomic per
// transaction id. It returns the stored set either way.
type Repository interface {
	FindByTransaction(ctx context.Context, transactionID, tenantID string) ([]Entry, error)
	InsertBatchIfAbsent(ctx context.Context, transactionID, tenantID string, entries []Entry) ([]Entry, error)
	FinalizeByTransaction(ctx context.Context, transactionID, tenantID string, at time.Time) (int64, error)
	QueryWindow(ctx context.Context, balanceGroupID, tenantID string, start, end time.Time) ([]Entry, error)
}
