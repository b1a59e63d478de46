package application

import (
	"context"
	"errors"
	"time"

	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/validation"
)

// Service implements the balance group registry operations.
type Service struct {
	repo      balancegroup.Repository
	validator *validation.Validator
	now       func() time.Time
}

// NewService constructs a balance group service.
func NewService(repo balancegroup.Repository, validator *validation.Validator) (*Service, error) {
	if repo == nil {
		return nil, errors.New("balance group service: nil repo")
	}
	if validator == nil {
		return nil, errors.New("balance group service: nil validator")
	}
	return &Service{repo: repo, validator: validator, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Create validates and persists a new provisional balance group.
func (s *Service) Create(ctx context.Context, name, tenantID string, start, end time.Time, settlementRule string) (*balancegroup.Group, error) {
	if err := s.validator.ValidateBalanceGroup(ctx, validation.BalanceGroupInput{
		Name:           name,
		StartTime:      start,
		EndTime:        end,
		SettlementRule: settlementRule,
		TenantID:       tenantID,
	}); err != nil {
		return nil, err
	}
	now := s.now()
	group := &balancegroup.Group{
		ID:             balancegroup.NewID(),
		TenantID:       tenantID,
		Name:           name,
		StartTime:      start,
		EndTime:        end,
		Status:         balancegroup.StatusProvisional,
		SettlementRule: settlementRule,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// FindByID resolves a group under the tenant scope. Absence and tenant
// mismatch are indistinguishable here: both report not found.
func (s *Service) FindByID(ctx context.Context, id, tenantID string) (*balancegroup.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil || group.TenantID != tenantID {
		return nil, balancegroup.ErrNotFound
	}
	return group, nil
}

// ListByTenant returns all groups of a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]balancegroup.Group, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// Update changes name and settlement rule of a still-provisional group.
func (s *Service) Update(ctx context.Context, id, tenantID, name, settlementRule string) (*balancegroup.Group, error) {
	group, err := s.FindByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if group.IsFinal() {
		return nil, balancegroup.ErrAlreadyFinal
	}
	if name != "" {
		group.Name = name
	}
	if settlementRule != "" && settlementRule != group.SettlementRule {
		if err := s.validator.ValidateBalanceGroup(ctx, validation.BalanceGroupInput{
			Name:           group.Name,
			StartTime:      group.StartTime,
			EndTime:        group.EndTime,
			SettlementRule: settlementRule,
			TenantID:       tenantID,
		}); err != nil {
			return nil, err
		}
		group.SettlementRule = settlementRule
	}
	group.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// SetFinal transitions a group to its terminal status. The transition is
// one-way; closing an already-final group fails.
func (s *Service) SetFinal(ctx context.Context, id, tenantID string) (*balancegroup.Group, error) {
	group, err := s.FindByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if group.IsFinal() {
		return nil, balancegroup.ErrAlreadyFinal
	}
	group.Status = balancegroup.StatusFinal
	group.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}
