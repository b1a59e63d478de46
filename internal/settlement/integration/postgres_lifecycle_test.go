package integration_test

import (
	"context"
	"database/sql"
	"math"
	"os"
	"testing"
	"time"

	bgapp "balancegrid/internal/balancegroup/application"
	bgpostgres "balancegrid/internal/balancegroup/infrastructure/postgres"
	settlementapp "balancegrid/internal/settlement/application"
	settlement "balancegrid/internal/settlement/domain"
	settlementpostgres "balancegrid/internal/settlement/infrastructure/postgres"
	tenant "balancegrid/internal/tenant/domain"
	tenantpostgres "balancegrid/internal/tenant/infrastructure/postgres"
	txapp "balancegrid/internal/transaction/application"
	txpostgres "balancegrid/internal/transaction/infrastructure/postgres"
	"balancegrid/internal/validation"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestSettlementClosedLoop_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "tenants") ||
		!tableExists(db, "balance_groups") ||
		!tableExists(db, "transactions") ||
		!tableExists(db, "settlement_entries") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	tenantID := "tn-it-loop"

	_, _ = db.ExecContext(ctx, "DELETE FROM settlement_entries WHERE tenant_id = $1", tenantID)
	_, _ = db.ExecContext(ctx, "DELETE FROM transactions WHERE tenant_id = $1", tenantID)
	_, _ = db.ExecContext(ctx, "DELETE FROM balance_groups WHERE tenant_id = $1", tenantID)
	_, _ = db.ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", tenantID)

	now := time.Now().UTC()
	tenantRepo := tenantpostgres.NewTenantRepository(db)
	if err := tenantRepo.Insert(ctx, &tenant.Tenant{
		ID:         tenantID,
		Name:       "integration",
		Identifier: "it-loop",
		Status:     tenant.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("insert tenant: %v", err)
	}

	groupRepo := bgpostgres.NewGroupRepository(db)
	validator, err := validation.NewValidator(groupRepo)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	groups, err := bgapp.NewService(groupRepo, validator)
	if err != nil {
		t.Fatalf("new group service: %v", err)
	}
	txs, err := txapp.NewService(txpostgres.NewTransactionRepository(db), groupRepo, nil)
	if err != nil {
		t.Fatalf("new transaction service: %v", err)
	}
	calculator, err := settlementapp.NewCalculatorService(settlementpostgres.NewEntryRepository(db), txs, groupRepo)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	dayStart := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	rule, err := groups.Create(ctx, "rule", tenantID, dayStart, dayEnd, "")
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	groupA, err := groups.Create(ctx, "group-a", tenantID, dayStart, dayEnd, rule.ID)
	if err != nil {
		t.Fatalf("create group-a: %v", err)
	}
	groupB, err := groups.Create(ctx, "group-b", tenantID, dayStart, dayEnd, rule.ID)
	if err != nil {
		t.Fatalf("create group-b: %v", err)
	}

	tx, err := txs.Create(ctx, txapp.CreateInput{
		Name:          "pg-loop",
		SourceID:      groupA.ID,
		DestinationID: groupB.ID,
		StartTime:     dayStart.Add(8 * time.Hour),
		EndTime:       dayStart.Add(9 * time.Hour),
		EnergyAmount:  600,
		TenantID:      tenantID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	first, err := calculator.Calculate(ctx, tx.ID, tenantID)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(first) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(first))
	}
	var sum float64
	for _, entry := range first {
		sum += entry.EnergyAmount
	}
	if math.Abs(sum) > 1e-9 {
		t.Fatalf("entries do not net to zero: %v", sum)
	}

	// The unique interval index keeps recomputation from duplicating rows.
	second, err := calculator.Calculate(ctx, tx.ID, tenantID)
	if err != nil {
		t.Fatalf("second calculate: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("recomputation changed entry count: %d vs %d", len(second), len(first))
	}

	if _, err := txs.Finalize(ctx, tx.ID, tenantID); err != nil {
		t.Fatalf("finalize transaction: %v", err)
	}
	finalized, err := calculator.Finalize(ctx, tx.ID, tenantID)
	if err != nil {
		t.Fatalf("finalize entries: %v", err)
	}
	for _, entry := range finalized {
		if entry.Status != settlement.StatusFinal {
			t.Fatalf("entry %s still %s", entry.ID, entry.Status)
		}
	}

	report, err := calculator.Balance(ctx, groupA.ID, dayStart, dayEnd, tenantID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if math.Abs(report.TotalAmount-(-600)) > 1e-9 {
		t.Fatalf("total = %v, want -600", report.TotalAmount)
	}
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name).Scan(&exists)
	return err == nil && exists
}
