package settlement

import (
	"sort"
	"time"
)

// ReportInterval is one interval row of a balance report.
type ReportInterval struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Amount    float64   `json:"amount"`
}

// BalanceReport is the net position of one balance group over a query
// window, per interval and in total.
type BalanceReport struct {
	BalanceGroupID string           `json:"balanceGroupId"`
	TotalAmount    float64          `json:"totalAmount"`
	Intervals      []ReportInterval `json:"intervals"`
}

// BuildBalanceReport aggregates entries into a report. A stored positive
// amount is an outflow from the group's perspective, so the sign is
// inverted to express net position.
func BuildBalanceReport(balanceGroupID string, entries []Entry) BalanceReport {
	// Keyed by the instant; time.Time equality is sensitive to the
	// location pointer and would split rows loaded in mixed zones.
	byStart := make(map[int64]*ReportInterval)
	report := BalanceReport{BalanceGroupID: balanceGroupID}

	for _, entry := range entries {
		key := entry.IntervalStart.UnixNano()
		slot := byStart[key]
		if slot == nil {
			slot = &ReportInterval{StartTime: entry.IntervalStart, EndTime: entry.IntervalEnd}
			byStart[key] = slot
		}
		effective := -entry.EnergyAmount
		slot.Amount += effective
		report.TotalAmount += effective
	}

	report.Intervals = make([]ReportInterval, 0, len(byStart))
	for _, slot := range byStart {
		report.Intervals = append(report.Intervals, *slot)
	}
	sort.Slice(report.Intervals, func(i, j int) bool {
		return report.Intervals[i].StartTime.Before(report.Intervals[j].StartTime)
	})
	return report
}
