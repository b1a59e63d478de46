package settlement_test

import (
	"math"
	"testing"
	"time"

	settlement "balancegrid/internal/settlement/domain"
)

func TestBuildBalanceReportMergesEquivalentInstants(t *testing.T) {
	start := time.Date(2026, time.April, 6, 10, 0, 0, 0, time.UTC)
	end := start.Add(15 * time.Minute)
	zone := time.FixedZone("CEST", 2*3600)

	entries := []settlement.Entry{
		{BalanceGroupID: "bg-a", EnergyAmount: 250, IntervalStart: start, IntervalEnd: end},
		{BalanceGroupID: "bg-a", EnergyAmount: 125, IntervalStart: start.In(zone), IntervalEnd: end.In(zone)},
	}

	report := settlement.BuildBalanceReport("bg-a", entries)
	if len(report.Intervals) != 1 {
		t.Fatalf("expected 1 interval row, got %d", len(report.Intervals))
	}
	if got := report.Intervals[0].Amount; math.Abs(got-(-375)) > 1e-9 {
		t.Fatalf("interval amount = %v, want -375", got)
	}
	if math.Abs(report.TotalAmount-(-375)) > 1e-9 {
		t.Fatalf("total = %v, want -375", report.TotalAmount)
	}
}

func TestBuildBalanceReportOrdersByStart(t *testing.T) {
	base := time.Date(2026, time.April, 6, 10, 0, 0, 0, time.UTC)
	entries := []settlement.Entry{
		{BalanceGroupID: "bg-a", EnergyAmount: 100, IntervalStart: base.Add(15 * time.Minute), IntervalEnd: base.Add(30 * time.Minute)},
		{BalanceGroupID: "bg-a", EnergyAmount: 100, IntervalStart: base, IntervalEnd: base.Add(15 * time.Minute)},
	}
	report := settlement.BuildBalanceReport("bg-a", entries)
	if len(report.Intervals) != 2 {
		t.Fatalf("expected 2 interval rows, got %d", len(report.Intervals))
	}
	if !report.Intervals[0].StartTime.Equal(base) {
		t.Fatalf("rows not ordered by start: first = %v", report.Intervals[0].StartTime)
	}
}
