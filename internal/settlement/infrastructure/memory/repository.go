package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	settlement "balancegrid/internal/settlement/domain"
)

// EntryRepository is an in-memory repository for settlement entries.
type EntryRepository struct {
	mu   sync.Mutex
	data map[string][]settlement.Entry // keyed by transaction id
}

// NewEntryRepository constructs a repository.
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{data: make(map[string][]settlement.Entry)}
}

// FindByTransaction returns the stored entries for a transaction.
func (r *EntryRepository) FindByTransaction(ctx context.Context, transactionID, tenantID string) ([]settlement.Entry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filterByTransaction(transactionID, tenantID), nil
}

// InsertBatchIfAbsent inserts the batch unless entries already exist for
// the transaction. The lock makes check-then-insert atomic, so two
// concurrent calculations cannot both insert.
func (r *EntryRepository) InsertBatchIfAbsent(ctx context.Context, transactionID, tenantID string, entries []settlement.Entry) ([]settlement.Entry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.filterByTransaction(transactionID, tenantID); len(existing) > 0 {
		return existing, nil
	}
	stored := append([]settlement.Entry(nil), entries...)
	r.data[transactionID] = append(r.data[transactionID], stored...)
	return r.filterByTransaction(transactionID, tenantID), nil
}

// FinalizeByTransaction moves every provisional entry of the transaction
// to final and returns the number of updated entries.
func (r *EntryRepository) FinalizeByTransaction(ctx context.Context, transactionID, tenantID string, at time.Time) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	entries := r.data[transactionID]
	for i := range entries {
		if entries[i].TenantID != tenantID || entries[i].Status != settlement.StatusProvisional {
			continue
		}
		entries[i].Status = settlement.StatusFinal
		entries[i].UpdatedAt = at
		updated++
	}
	return updated, nil
}

// QueryWindow returns entries of a balance group whose interval lies
// within [start, end], ordered by interval start.
func (r *EntryRepository) QueryWindow(ctx context.Context, balanceGroupID, tenantID string, start, end time.Time) ([]settlement.Entry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]settlement.Entry, 0)
	for _, entries := range r.data {
		for _, entry := range entries {
			if entry.BalanceGroupID != balanceGroupID || entry.TenantID != tenantID {
				continue
			}
			if entry.IntervalStart.Before(start) || entry.IntervalEnd.After(end) {
				continue
			}
			matches = append(matches, entry)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].IntervalStart.Before(matches[j].IntervalStart)
	})
	return matches, nil
}

func (r *EntryRepository) filterByTransaction(transactionID, tenantID string) []settlement.Entry {
	matches := make([]settlement.Entry, 0)
	for _, entry := range r.data[transactionID] {
		if entry.TenantID == tenantID {
			matches = append(matches, entry)
		}
	}
	return matches
}
