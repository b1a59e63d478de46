package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusProvisional = "provisional"
	StatusFinal       = "final"
)

// Transaction is a directed energy transfer between two balance groups
// over a time window. Finalization is the only status mutation and is
// irreversible.
type Transaction struct {
	ID            string
	TenantID      string
	Name          string
	SourceID      string
	DestinationID string
	StartTime     time.Time
	EndTime       time.Time
	EnergyAmount  float64
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFinal reports whether the transaction reached its terminal status.
func (t *Transaction) IsFinal() bool {
	return t != nil && t.Status == StatusFinal
}

// NewID returns a fresh transaction id.
func NewID() string {
	return "tx-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
