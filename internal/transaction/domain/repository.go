package transaction

import (
	"context"
	"time"
)

// Query filters transaction listings. TenantID is always applied; the
// other fields are optional. GroupID matches source or destination.
// When both window bounds are set the filter keeps transactions whose
// span overlaps [WindowStart, WindowEnd].
type Query struct {
	TenantID    string
	GroupID     string
	WindowStart time.Time
	WindowEnd   time.Time
	Status      string
}

// Matches reports whether t satisfies the query.
func (q Query) Matches(t *Transaction) bool {
	if t == nil || t.TenantID != q.TenantID {
		return false
	}
	if q.GroupID != "" && t.SourceID != q.GroupID && t.DestinationID != q.GroupID {
		return false
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if !q.WindowStart.IsZero() && !q.WindowEnd.IsZero() {
		if !t.StartTime.Before(q.WindowEnd) || !t.EndTime.After(q.WindowStart) {
			return false
		}
	}
	return true
}

// Repository persists transactions. FindByID returns (nil, nil) for
// unknown ids; tenant scoping is applied by the application layer.
type Repository interface {
	Insert(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id string) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	List(ctx context.Context, q Query) ([]Transaction, error)
}
