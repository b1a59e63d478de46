package settlement

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusProvisional = "provisional"
	StatusFinal       = "final"
)

// Entry is one party's signed, interval-scoped contribution to its
// settlement target for one transaction. Entries are derived data: only
// the calculator creates them and only the lifecycle consumer moves
// their status, following the owning transaction.
type Entry struct {
	ID             string
	TransactionID  string
	BalanceGroupID string
	TargetGroupID  string
	TenantID       string
	EnergyAmount   float64
	Status         string
	IntervalStart  time.Time
	IntervalEnd    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEntryID returns a fresh settlement entry id.
func NewEntryID() string {
	return "se-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
