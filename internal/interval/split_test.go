package interval_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"balancegrid/internal/interval"
)

func TestSplitEqualAllocation(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 1, 1, 0, 0, 0, time.UTC)

	slices, err := interval.Split(start, end, 1000)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(slices) != 4 {
		t.Fatalf("expected 4 slices, got %d", len(slices))
	}
	for i, s := range slices {
		if s.EnergyAmount != 250 {
			t.Fatalf("slice %d: expected 250, got %v", i, s.EnergyAmount)
		}
	}
}

func TestSplitCoverage(t *testing.T) {
	start := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 10, 9, 7, 0, 0, time.UTC)

	slices, err := interval.Split(start, end, 500)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(slices) != 5 {
		t.Fatalf("expected 5 slices for 67 minutes, got %d", len(slices))
	}
	if !slices[0].StartTime.Equal(start) {
		t.Fatalf("first slice starts at %v, want %v", slices[0].StartTime, start)
	}
	if !slices[len(slices)-1].EndTime.Equal(end) {
		t.Fatalf("last slice ends at %v, want %v", slices[len(slices)-1].EndTime, end)
	}
	var covered time.Duration
	for i, s := range slices {
		if !s.EndTime.After(s.StartTime) {
			t.Fatalf("slice %d is empty", i)
		}
		if i > 0 && !s.StartTime.Equal(slices[i-1].EndTime) {
			t.Fatalf("gap between slice %d and %d", i-1, i)
		}
		covered += s.EndTime.Sub(s.StartTime)
	}
	if covered != end.Sub(start) {
		t.Fatalf("covered %v, want %v", covered, end.Sub(start))
	}
}

func TestSplitTrailingSliceKeepsFullShare(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(20 * time.Minute)

	slices, err := interval.Split(start, end, 100)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[1].EndTime.Sub(slices[1].StartTime) != 5*time.Minute {
		t.Fatalf("trailing slice duration = %v, want 5m", slices[1].EndTime.Sub(slices[1].StartTime))
	}
	if math.Abs(slices[0].EnergyAmount-50) > 1e-9 || math.Abs(slices[1].EnergyAmount-50) > 1e-9 {
		t.Fatalf("allocation not uniform: %v / %v", slices[0].EnergyAmount, slices[1].EnergyAmount)
	}
}

func TestSplitInvalidRange(t *testing.T) {
	at := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	if _, err := interval.Split(at, at, 100); !errors.Is(err, interval.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for empty span, got %v", err)
	}
	if _, err := interval.Split(at.Add(time.Hour), at, 100); !errors.Is(err, interval.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for reversed span, got %v", err)
	}
}
