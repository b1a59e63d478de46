package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Tenant is the isolation boundary every other entity is scoped by.
// Tenants are never hard-deleted; only the status toggles.
type Tenant struct {
	ID         string
	Name       string
	Identifier string
	Status     string
	Settings   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the tenant may be used for new work.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == StatusActive
}

// ValidStatus reports whether value is a known tenant status.
func ValidStatus(value string) bool {
	return value == StatusActive || value == StatusInactive
}

// NewID returns a fresh tenant id.
func NewID() string {
	return "tn-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
