package events

import "time"

// TenantCreated is published after a tenant registration.
type TenantCreated struct {
	TenantID   string    `json:"tenantId"`
	Identifier string    `json:"identifier"`
	OccurredAt time.Time `json:"occurredAt"`
}

// TenantStatusChanged is published after a status toggle.
type TenantStatusChanged struct {
	TenantID   string    `json:"tenantId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}
