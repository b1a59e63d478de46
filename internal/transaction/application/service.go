package application

import (
	"context"
	"errors"
	"time"

	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/interval"
	"balancegrid/internal/transaction/application/events"
	transaction "balancegrid/internal/transaction/domain"
	"balancegrid/internal/validation"
)

// GroupReader resolves balance groups without tenant scoping; the
// service distinguishes absence from tenant mismatch itself.
type GroupReader interface {
	FindByID(ctx context.Context, id string) (*balancegroup.Group, error)
}

// Publisher emits domain events, typically into the outbox.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service implements the transaction ledger operations.
type Service struct {
	repo      transaction.Repository
	groups    GroupReader
	publisher Publisher
	now       func() time.Time
}

// NewService constructs a transaction service.
func NewService(repo transaction.Repository, groups GroupReader, publisher Publisher) (*Service, error) {
	if repo == nil {
		return nil, errors.New("transaction service: nil repo")
	}
	if groups == nil {
		return nil, errors.New("transaction service: nil group reader")
	}
	return &Service{repo: repo, groups: groups, publisher: publisher, now: func() time.Time { return time.Now().UTC() }}, nil
}

// CreateInput carries the fields of a new transaction.
type CreateInput struct {
	Name          string
	SourceID      string
	DestinationID string
	StartTime     time.Time
	EndTime       time.Time
	EnergyAmount  float64
	TenantID      string
}

// Create checks timeframe and amount, resolves both endpoints under the
// tenant, rejects final endpoints and persists a provisional record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*transaction.Transaction, error) {
	if !in.StartTime.Before(in.EndTime) {
		return nil, validation.ErrInvalidTimeframe
	}
	if in.EnergyAmount <= 0 {
		return nil, validation.ErrInvalidEnergyAmount
	}
	if in.SourceID == in.DestinationID {
		return nil, validation.ErrSameBalanceGroup
	}

	source, err := s.groups.FindByID(ctx, in.SourceID)
	if err != nil {
		return nil, err
	}
	destination, err := s.groups.FindByID(ctx, in.DestinationID)
	if err != nil {
		return nil, err
	}
	if source == nil || destination == nil {
		return nil, balancegroup.ErrNotFound
	}
	if source.TenantID != in.TenantID || destination.TenantID != in.TenantID {
		return nil, transaction.ErrInvalidTenant
	}
	if source.IsFinal() || destination.IsFinal() {
		return nil, validation.ErrBalanceGroupFinal
	}

	now := s.now()
	t := &transaction.Transaction{
		ID:            transaction.NewID(),
		TenantID:      in.TenantID,
		Name:          in.Name,
		SourceID:      in.SourceID,
		DestinationID: in.DestinationID,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		EnergyAmount:  in.EnergyAmount,
		Status:        transaction.StatusProvisional,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get fetches a transaction by id. A record owned by another tenant
// reports ErrInvalidTenant rather than ErrNotFound so clients can tell
// the two apart.
func (s *Service) Get(ctx context.Context, id, tenantID string) (*transaction.Transaction, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, transaction.ErrNotFound
	}
	if t.TenantID != tenantID {
		return nil, transaction.ErrInvalidTenant
	}
	return t, nil
}

// List returns all transactions matching the query under the tenant.
func (s *Service) List(ctx context.Context, q transaction.Query, tenantID string) ([]transaction.Transaction, error) {
	q.TenantID = tenantID
	return s.repo.List(ctx, q)
}

// Finalize transitions the transaction to its terminal status and
// broadcasts the finalized notification. Repeated calls are idempotent
// no-ops re-applying the same terminal state; the notification is
// re-emitted each time (at-least-once, consumers dedup).
func (s *Service) Finalize(ctx context.Context, id, tenantID string) (*transaction.Transaction, error) {
	t, err := s.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !t.IsFinal() {
		t.Status = transaction.StatusFinal
		t.UpdatedAt = now
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, err
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.TransactionFinalized{ID: t.ID, TenantID: t.TenantID, OccurredAt: now}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GetIntervals projects the stored span and amount through the interval
// splitter. Absence and tenant mismatch both report ErrNotFound.
func (s *Service) GetIntervals(ctx context.Context, id, tenantID string) ([]interval.Slice, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.TenantID != tenantID {
		return nil, transaction.ErrNotFound
	}
	return interval.Split(t.StartTime, t.EndTime, t.EnergyAmount)
}
