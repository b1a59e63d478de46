package application

import (
	"context"
	"errors"
	"time"

	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/interval"
	"balancegrid/internal/observability/metrics"
	settlement "balancegrid/internal/settlement/domain"
	transaction "balancegrid/internal/transaction/domain"
)

// TransactionReader is the tenant-aware transaction lookup.
type TransactionReader interface {
	Get(ctx context.Context, id, tenantID string) (*transaction.Transaction, error)
	List(ctx context.Context, q transaction.Query, tenantID string) ([]transaction.Transaction, error)
}

// GroupReader resolves balance groups without tenant scoping.
type GroupReader interface {
	FindByID(ctx context.Context, id string) (*balancegroup.Group, error)
}

// CalculatorService derives settlement entries from transactions and
// aggregates them into balance reports.
type CalculatorService struct {
	entries      settlement.Repository
	transactions TransactionReader
	groups       GroupReader
	now          func() time.Time
}

// NewCalculatorService constructs a calculator.
func NewCalculatorService(entries settlement.Repository, transactions TransactionReader, groups GroupReader) (*CalculatorService, error) {
	if entries == nil {
		return nil, errors.New("calculator service: nil entry repo")
	}
	if transactions == nil {
		return nil, errors.New("calculator service: nil transaction reader")
	}
	if groups == nil {
		return nil, errors.New("calculator service: nil group reader")
	}
	return &CalculatorService{
		entries:      entries,
		transactions: transactions,
		groups:       groups,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Calculate derives the settlement entries for a transaction. The
// computation happens at most once per transaction: repeated calls
// return the stored set unchanged.
//
// The transaction lookup reports ErrInvalidTenant for both an unknown id
// and a foreign tenant. This uniform mapping is part of the external
// contract of this operation, unlike Transaction.Get which keeps the
// distinction.
func (s *CalculatorService) Calculate(ctx context.Context, transactionID, tenantID string) ([]settlement.Entry, error) {
	start := s.now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSettlementCalculate(result, time.Since(start))
	}()

	t, err := s.transactions.Get(ctx, transactionID, tenantID)
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, transaction.ErrNotFound) || errors.Is(err, transaction.ErrInvalidTenant) {
			return nil, settlement.ErrInvalidTenant
		}
		return nil, err
	}
	if t.IsFinal() {
		result = metrics.ResultError
		return nil, settlement.ErrTransactionFinalized
	}

	existing, err := s.entries.FindByTransaction(ctx, transactionID, tenantID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	source, err := s.groups.FindByID(ctx, t.SourceID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	destination, err := s.groups.FindByID(ctx, t.DestinationID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if source == nil || destination == nil {
		result = metrics.ResultError
		return nil, balancegroup.ErrNotFound
	}
	if source.TenantID != tenantID || destination.TenantID != tenantID {
		result = metrics.ResultError
		return nil, settlement.ErrInvalidTenant
	}

	slices, err := interval.Split(t.StartTime, t.EndTime, t.EnergyAmount)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	now := s.now()
	batch := make([]settlement.Entry, 0, 2*len(slices))
	for _, slice := range slices {
		// A party without a settlement rule is not settled.
		if source.SettlementRule != "" {
			batch = append(batch, settlement.Entry{
				ID:             settlement.NewEntryID(),
				TransactionID:  t.ID,
				BalanceGroupID: source.ID,
				TargetGroupID:  source.SettlementRule,
				TenantID:       tenantID,
				EnergyAmount:   slice.EnergyAmount,
				Status:         settlement.StatusProvisional,
				IntervalStart:  slice.StartTime,
				IntervalEnd:    slice.EndTime,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
		if destination.SettlementRule != "" {
			batch = append(batch, settlement.Entry{
				ID:             settlement.NewEntryID(),
				TransactionID:  t.ID,
				BalanceGroupID: destination.ID,
				TargetGroupID:  destination.SettlementRule,
				TenantID:       tenantID,
				EnergyAmount:   -slice.EnergyAmount,
				Status:         settlement.StatusProvisional,
				IntervalStart:  slice.StartTime,
				IntervalEnd:    slice.EndTime,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
	}
	if len(batch) == 0 {
		return []settlement.Entry{}, nil
	}

	stored, err := s.entries.InsertBatchIfAbsent(ctx, transactionID, tenantID, batch)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return stored, nil
}

// Finalize bulk-transitions every provisional entry of the transaction
// to final. Re-invoking after all entries are final is a no-op; zero
// matching entries is a valid outcome, not an error.
func (s *CalculatorService) Finalize(ctx context.Context, transactionID, tenantID string) ([]settlement.Entry, error) {
	start := s.now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSettlementFinalize(result, time.Since(start))
	}()

	if _, err := s.entries.FinalizeByTransaction(ctx, transactionID, tenantID, s.now()); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	entries, err := s.entries.FindByTransaction(ctx, transactionID, tenantID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return entries, nil
}

// FindByTransaction returns the stored entries for a transaction.
func (s *CalculatorService) FindByTransaction(ctx context.Context, transactionID, tenantID string) ([]settlement.Entry, error) {
	return s.entries.FindByTransaction(ctx, transactionID, tenantID)
}

// Balance aggregates settlement entries for a balance group over a
// query window. Entries for still-provisional transactions touching the
// window are materialized lazily first; final transactions rely on their
// previously stored entries.
func (s *CalculatorService) Balance(ctx context.Context, balanceGroupID string, startTime, endTime time.Time, tenantID string) (*settlement.BalanceReport, error) {
	start := s.now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBalanceQuery(result, time.Since(start))
	}()

	touching, err := s.transactions.List(ctx, transaction.Query{
		GroupID:     balanceGroupID,
		WindowStart: startTime,
		WindowEnd:   endTime,
	}, tenantID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	for _, t := range touching {
		if t.IsFinal() {
			continue
		}
		if _, err := s.Calculate(ctx, t.ID, tenantID); err != nil {
			result = metrics.ResultError
			return nil, err
		}
	}

	entries, err := s.entries.QueryWindow(ctx, balanceGroupID, tenantID, startTime, endTime)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	report := settlement.BuildBalanceReport(balanceGroupID, entries)
	return &report, nil
}
