package memory

import (
	"context"
	"sort"
	"sync"

	transaction "balancegrid/internal/transaction/domain"
)

// TransactionRepository is an in-memory repository for transactions.
type TransactionRepository struct {
	mu   sync.RWMutex
	data map[string]*transaction.Transaction
}

// NewTransactionRepository constructs a repository.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{data: make(map[string]*transaction.Transaction)}
}

// Insert stores a new transaction.
func (r *TransactionRepository) Insert(ctx context.Context, t *transaction.Transaction) error {
	_ = ctx
	if t == nil {
		return transaction.ErrNilTransaction
	}
	copy := *t
	r.mu.Lock()
	r.data[t.ID] = &copy
	r.mu.Unlock()
	return nil
}

// FindByID loads a transaction, returning (nil, nil) when absent.
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*transaction.Transaction, error) {
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

// Update overwrites a stored transaction.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	_ = ctx
	if t == nil {
		return transaction.ErrNilTransaction
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[t.ID]; !ok {
		return transaction.ErrNotFound
	}
	copy := *t
	r.data[t.ID] = &copy
	return nil
}

// List returns all transactions matching the query ordered by start time.
func (r *TransactionRepository) List(ctx context.Context, q transaction.Query) ([]transaction.Transaction, error) {
	_ = ctx
	r.mu.RLock()
	matches := make([]transaction.Transaction, 0)
	for _, t := range r.data {
		if q.Matches(t) {
			matches = append(matches, *t)
		}
	}
	r.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartTime.Before(matches[j].StartTime)
	})
	return matches, nil
}
