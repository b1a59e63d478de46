package balancegroup

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusProvisional = "provisional"
	StatusFinal       = "final"
)

// Group is a balance group: a scoped account bucket accumulating energy
// transfers within its validity window. The optional SettlementRule
// references the group collecting this group's settlement entries.
type Group struct {
	ID             string
	TenantID       string
	Name           string
	StartTime      time.Time
	EndTime        time.Time
	Status         string
	SettlementRule string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsFinal reports whether the group reached its terminal status.
func (g *Group) IsFinal() bool {
	return g != nil && g.Status == StatusFinal
}

// Covers reports whether [start, end] lies within the validity window.
func (g *Group) Covers(start, end time.Time) bool {
	if g == nil {
		return false
	}
	return !start.Before(g.StartTime) && !end.After(g.EndTime)
}

// NewID returns a fresh balance group id.
func NewID() string {
	return "bg-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
