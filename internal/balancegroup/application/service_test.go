package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	bgapp "balancegrid/internal/balancegroup/application"
	balancegroup "balancegrid/internal/balancegroup/domain"
	bgmemory "balancegrid/internal/balancegroup/infrastructure/memory"
	"balancegrid/internal/validation"
)

const testTenant = "tn-test"

func newService(t *testing.T) *bgapp.Service {
	t.Helper()
	repo := bgmemory.NewGroupRepository()
	validator, err := validation.NewValidator(repo)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	service, err := bgapp.NewService(repo, validator)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func validWindow() (time.Time, time.Time) {
	start := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func TestCreateValidatesTimeframeAndAlignment(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	start, end := validWindow()

	if _, err := service.Create(ctx, "inverted", testTenant, end, start, ""); !errors.Is(err, validation.ErrInvalidTimeframe) {
		t.Fatalf("inverted: got %v", err)
	}
	if _, err := service.Create(ctx, "ragged", testTenant, start.Add(7*time.Minute), end, ""); !errors.Is(err, validation.ErrInvalidAlignment) {
		t.Fatalf("ragged: got %v", err)
	}

	group, err := service.Create(ctx, "ok", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if group.Status != balancegroup.StatusProvisional {
		t.Fatalf("status = %s, want provisional", group.Status)
	}
}

func TestCreateChecksSettlementRuleReference(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	start, end := validWindow()

	if _, err := service.Create(ctx, "dangling", testTenant, start, end, "bg-missing"); !errors.Is(err, validation.ErrInvalidSettlementRule) {
		t.Fatalf("dangling rule: got %v", err)
	}

	rule, err := service.Create(ctx, "rule", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if _, err := service.Create(ctx, "ok", testTenant, start, end, rule.ID); err != nil {
		t.Fatalf("create with rule: %v", err)
	}

	foreignRule, err := service.Create(ctx, "foreign-rule", "tn-other", start, end, "")
	if err != nil {
		t.Fatalf("create foreign rule: %v", err)
	}
	if _, err := service.Create(ctx, "cross", testTenant, start, end, foreignRule.ID); !errors.Is(err, validation.ErrInvalidTenantReference) {
		t.Fatalf("cross-tenant rule: got %v", err)
	}
}

func TestFindByIDHidesForeignGroups(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	start, end := validWindow()

	group, err := service.Create(ctx, "scoped", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.FindByID(ctx, group.ID, "tn-other"); !errors.Is(err, balancegroup.ErrNotFound) {
		t.Fatalf("foreign lookup: got %v", err)
	}
	if _, err := service.FindByID(ctx, "bg-missing", testTenant); !errors.Is(err, balancegroup.ErrNotFound) {
		t.Fatalf("missing lookup: got %v", err)
	}
}

func TestSetFinalIsTerminal(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	start, end := validWindow()

	group, err := service.Create(ctx, "closing", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	final, err := service.SetFinal(ctx, group.ID, testTenant)
	if err != nil {
		t.Fatalf("set final: %v", err)
	}
	if final.Status != balancegroup.StatusFinal {
		t.Fatalf("status = %s, want final", final.Status)
	}

	if _, err := service.SetFinal(ctx, group.ID, testTenant); !errors.Is(err, balancegroup.ErrAlreadyFinal) {
		t.Fatalf("repeat set final: got %v", err)
	}
	if _, err := service.Update(ctx, group.ID, testTenant, "renamed", ""); !errors.Is(err, balancegroup.ErrAlreadyFinal) {
		t.Fatalf("update after final: got %v", err)
	}
}

func TestUpdateRevalidatesRuleChange(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	start, end := validWindow()

	group, err := service.Create(ctx, "mutable", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Update(ctx, group.ID, testTenant, "", "bg-missing"); !errors.Is(err, validation.ErrInvalidSettlementRule) {
		t.Fatalf("dangling rule on update: got %v", err)
	}

	rule, err := service.Create(ctx, "rule", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	updated, err := service.Update(ctx, group.ID, testTenant, "renamed", rule.ID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed" || updated.SettlementRule != rule.ID {
		t.Fatalf("update not applied: %+v", updated)
	}
}
