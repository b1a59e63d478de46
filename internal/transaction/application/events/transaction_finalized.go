package events

import "time"

// TransactionFinalized is broadcast after a transaction reaches its
// terminal status. Delivery is at-least-once; consumers must dedup.
type TransactionFinalized struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	OccurredAt time.Time `json:"occurredAt"`
}
