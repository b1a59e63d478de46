package application

import (
	"context"
	"errors"
	"time"

	"balancegrid/internal/tenant/application/events"
	tenant "balancegrid/internal/tenant/domain"
)

// Publisher emits domain events, typically into the outbox.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service implements the tenant registry operations.
type Service struct {
	repo      tenant.Repository
	publisher Publisher
	now       func() time.Time
}

// NewService constructs a tenant service. The publisher may be nil when
// no event delivery is wired (tests, tools).
func NewService(repo tenant.Repository, publisher Publisher) (*Service, error) {
	if repo == nil {
		return nil, errors.New("tenant service: nil repo")
	}
	return &Service{repo: repo, publisher: publisher, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Create registers a tenant with status active.
func (s *Service) Create(ctx context.Context, name, identifier string, settings map[string]any) (*tenant.Tenant, error) {
	if name == "" || identifier == "" {
		return nil, tenant.ErrInvalidInput
	}
	now := s.now()
	t := &tenant.Tenant{
		ID:         tenant.NewID(),
		Name:       name,
		Identifier: identifier,
		Status:     tenant.StatusActive,
		Settings:   settings,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, events.TenantCreated{TenantID: t.ID, Identifier: t.Identifier, OccurredAt: now}); err != nil {
		return nil, err
	}
	return t, nil
}

// Get resolves a tenant by id.
func (s *Service) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tenant.ErrNotFound
	}
	return t, nil
}

// Update changes name and settings of an existing tenant.
func (s *Service) Update(ctx context.Context, id string, name string, settings map[string]any) (*tenant.Tenant, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tenant.ErrNotFound
	}
	if name != "" {
		t.Name = name
	}
	if settings != nil {
		t.Settings = settings
	}
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetStatus toggles the tenant status.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*tenant.Tenant, error) {
	if !tenant.ValidStatus(status) {
		return nil, tenant.ErrInvalidStatus
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tenant.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, events.TenantStatusChanged{TenantID: t.ID, Status: status, OccurredAt: t.UpdatedAt}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) publish(ctx context.Context, event any) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, event)
}
