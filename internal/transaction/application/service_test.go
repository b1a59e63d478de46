package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bgapp "balancegrid/internal/balancegroup/application"
	balancegroup "balancegrid/internal/balancegroup/domain"
	bgmemory "balancegrid/internal/balancegroup/infrastructure/memory"
	txapp "balancegrid/internal/transaction/application"
	"balancegrid/internal/transaction/application/events"
	transaction "balancegrid/internal/transaction/domain"
	txmemory "balancegrid/internal/transaction/infrastructure/memory"
	"balancegrid/internal/validation"
)

const testTenant = "tn-test"

type capturingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturingPublisher) Publish(ctx context.Context, event any) error {
	_ = ctx
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *capturingPublisher) all() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}

type fixture struct {
	groups    *bgapp.Service
	service   *txapp.Service
	publisher *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	groupRepo := bgmemory.NewGroupRepository()
	validator, err := validation.NewValidator(groupRepo)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	groups, err := bgapp.NewService(groupRepo, validator)
	if err != nil {
		t.Fatalf("new group service: %v", err)
	}
	publisher := &capturingPublisher{}
	service, err := txapp.NewService(txmemory.NewTransactionRepository(), groupRepo, publisher)
	if err != nil {
		t.Fatalf("new transaction service: %v", err)
	}
	return &fixture{groups: groups, service: service, publisher: publisher}
}

func (f *fixture) createGroup(t *testing.T, name string, start, end time.Time) *balancegroup.Group {
	t.Helper()
	group, err := f.groups.Create(context.Background(), name, testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return group
}

func window() (time.Time, time.Time) {
	start := time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window()
	groupA := f.createGroup(t, "a", start, end)
	groupB := f.createGroup(t, "b", start, end)

	base := txapp.CreateInput{
		Name:          "tx",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		EnergyAmount:  100,
		TenantID:      testTenant,
	}

	inverted := base
	inverted.StartTime, inverted.EndTime = base.EndTime, base.StartTime
	if _, err := f.service.Create(ctx, inverted); !errors.Is(err, validation.ErrInvalidTimeframe) {
		t.Fatalf("inverted timeframe: got %v", err)
	}

	zeroAmount := base
	zeroAmount.EnergyAmount = 0
	if _, err := f.service.Create(ctx, zeroAmount); !errors.Is(err, validation.ErrInvalidEnergyAmount) {
		t.Fatalf("zero amount: got %v", err)
	}

	self := base
	self.DestinationID = base.SourceID
	if _, err := f.service.Create(ctx, self); !errors.Is(err, validation.ErrSameBalanceGroup) {
		t.Fatalf("self transfer: got %v", err)
	}

	missing := base
	missing.DestinationID = "bg-missing"
	if _, err := f.service.Create(ctx, missing); !errors.Is(err, balancegroup.ErrNotFound) {
		t.Fatalf("missing endpoint: got %v", err)
	}

	foreign := base
	foreign.TenantID = "tn-other"
	if _, err := f.service.Create(ctx, foreign); !errors.Is(err, transaction.ErrInvalidTenant) {
		t.Fatalf("foreign tenant: got %v", err)
	}
}

func TestCreateRejectsFinalEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window()
	groupA := f.createGroup(t, "a", start, end)
	groupB := f.createGroup(t, "b", start, end)

	if _, err := f.groups.SetFinal(ctx, groupB.ID, testTenant); err != nil {
		t.Fatalf("set final: %v", err)
	}

	_, err := f.service.Create(ctx, txapp.CreateInput{
		Name:          "tx",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		EnergyAmount:  100,
		TenantID:      testTenant,
	})
	if !errors.Is(err, validation.ErrBalanceGroupFinal) {
		t.Fatalf("expected ErrBalanceGroupFinal, got %v", err)
	}
}

func TestGetDistinguishesMissingFromForeign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window()
	groupA := f.createGroup(t, "a", start, end)
	groupB := f.createGroup(t, "b", start, end)

	tx, err := f.service.Create(ctx, txapp.CreateInput{
		Name:          "tx",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		EnergyAmount:  100,
		TenantID:      testTenant,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.service.Get(ctx, "tx-missing", testTenant); !errors.Is(err, transaction.ErrNotFound) {
		t.Fatalf("missing: got %v", err)
	}
	if _, err := f.service.Get(ctx, tx.ID, "tn-other"); !errors.Is(err, transaction.ErrInvalidTenant) {
		t.Fatalf("foreign: got %v", err)
	}
	if _, err := f.service.Get(ctx, tx.ID, testTenant); err != nil {
		t.Fatalf("owned: got %v", err)
	}
}

func TestFinalizeIsIdempotentAndRepublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window()
	groupA := f.createGroup(t, "a", start, end)
	groupB := f.createGroup(t, "b", start, end)

	tx, err := f.service.Create(ctx, txapp.CreateInput{
		Name:          "tx",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		EnergyAmount:  100,
		TenantID:      testTenant,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.service.Finalize(ctx, tx.ID, testTenant)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if first.Status != transaction.StatusFinal {
		t.Fatalf("status = %s, want final", first.Status)
	}
	firstUpdated := first.UpdatedAt

	second, err := f.service.Finalize(ctx, tx.ID, testTenant)
	if err != nil {
		t.Fatalf("repeat finalize: %v", err)
	}
	if !second.UpdatedAt.Equal(firstUpdated) {
		t.Fatalf("repeat finalize mutated the record")
	}

	published := f.publisher.all()
	if len(published) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(published))
	}
	for _, event := range published {
		finalized, ok := event.(events.TransactionFinalized)
		if !ok {
			t.Fatalf("unexpected event %T", event)
		}
		if finalized.ID != tx.ID || finalized.TenantID != testTenant {
			t.Fatalf("bad event payload: %+v", finalized)
		}
	}
}

type failingPublisher struct{ err error }

func (p *failingPublisher) Publish(ctx context.Context, event any) error {
	_ = ctx
	_ = event
	return p.err
}

func TestFinalizeReportsOutboxFailure(t *testing.T) {
	ctx := context.Background()
	start, end := window()

	groupRepo := bgmemory.NewGroupRepository()
	validator, err := validation.NewValidator(groupRepo)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	groups, err := bgapp.NewService(groupRepo, validator)
	if err != nil {
		t.Fatalf("new group service: %v", err)
	}
	groupA, err := groups.Create(ctx, "a", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	groupB, err := groups.Create(ctx, "b", testTenant, start, end, "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	outboxErr := errors.New("outbox insert failed")
	service, err := txapp.NewService(txmemory.NewTransactionRepository(), groupRepo, &failingPublisher{err: outboxErr})
	if err != nil {
		t.Fatalf("new transaction service: %v", err)
	}

	tx, err := service.Create(ctx, txapp.CreateInput{
		Name:          "tx",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		EnergyAmount:  100,
		TenantID:      testTenant,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Finalize(ctx, tx.ID, testTenant); !errors.Is(err, outboxErr) {
		t.Fatalf("finalize with failing outbox: got %v, want %v", err, outboxErr)
	}

	// The record still reached its terminal state; the caller retries the
	// notification by finalizing again.
	stored, err := service.Get(ctx, tx.ID, testTenant)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != transaction.StatusFinal {
		t.Fatalf("status = %s, want final", stored.Status)
	}
}

func TestGetIntervalsSplitsEvenly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window()
	groupA := f.createGroup(t, "a", start, end)
	groupB := f.createGroup(t, "b", start, end)

	tx, err := f.service.Create(ctx, txapp.CreateInput{
		Name:          "tx",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		EnergyAmount:  1000,
		TenantID:      testTenant,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	slices, err := f.service.GetIntervals(ctx, tx.ID, testTenant)
	if err != nil {
		t.Fatalf("get intervals: %v", err)
	}
	if len(slices) != 4 {
		t.Fatalf("expected 4 slices, got %d", len(slices))
	}
	for _, slice := range slices {
		if slice.EnergyAmount != 250 {
			t.Fatalf("slice amount = %v, want 250", slice.EnergyAmount)
		}
	}

	// Foreign tenant and unknown id collapse to not found here.
	if _, err := f.service.GetIntervals(ctx, tx.ID, "tn-other"); !errors.Is(err, transaction.ErrNotFound) {
		t.Fatalf("foreign tenant: got %v", err)
	}
}

func TestListFiltersByGroupWindowAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window()
	groupA := f.createGroup(t, "a", start, end)
	groupB := f.createGroup(t, "b", start, end)
	groupC := f.createGroup(t, "c", start, end)

	early, err := f.service.Create(ctx, txapp.CreateInput{
		Name: "early", SourceID: groupA.ID, DestinationID: groupB.ID,
		StartTime: start, EndTime: start.Add(time.Hour),
		EnergyAmount: 10, TenantID: testTenant,
	})
	if err != nil {
		t.Fatalf("create early: %v", err)
	}
	if _, err := f.service.Create(ctx, txapp.CreateInput{
		Name: "late", SourceID: groupB.ID, DestinationID: groupC.ID,
		StartTime: start.Add(4 * time.Hour), EndTime: start.Add(5 * time.Hour),
		EnergyAmount: 10, TenantID: testTenant,
	}); err != nil {
		t.Fatalf("create late: %v", err)
	}

	byGroup, err := f.service.List(ctx, transaction.Query{GroupID: groupA.ID}, testTenant)
	if err != nil {
		t.Fatalf("list by group: %v", err)
	}
	if len(byGroup) != 1 || byGroup[0].ID != early.ID {
		t.Fatalf("group filter returned %d records", len(byGroup))
	}

	byWindow, err := f.service.List(ctx, transaction.Query{
		WindowStart: start,
		WindowEnd:   start.Add(2 * time.Hour),
	}, testTenant)
	if err != nil {
		t.Fatalf("list by window: %v", err)
	}
	if len(byWindow) != 1 || byWindow[0].ID != early.ID {
		t.Fatalf("window filter returned %d records", len(byWindow))
	}

	if _, err := f.service.Finalize(ctx, early.ID, testTenant); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	byStatus, err := f.service.List(ctx, transaction.Query{Status: transaction.StatusFinal}, testTenant)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != early.ID {
		t.Fatalf("status filter returned %d records", len(byStatus))
	}

	foreign, err := f.service.List(ctx, transaction.Query{}, "tn-other")
	if err != nil {
		t.Fatalf("list foreign: %v", err)
	}
	if len(foreign) != 0 {
		t.Fatalf("foreign tenant saw %d records", len(foreign))
	}
}
