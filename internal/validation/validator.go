package validation

import (
	"context"
	"errors"
	"time"

	balancegroup "balancegrid/internal/balancegroup/domain"
	"balancegrid/internal/interval"
)

// GroupFinder resolves balance groups for cross-field checks.
type GroupFinder interface {
	FindByID(ctx context.Context, id string) (*balancegroup.Group, error)
}

// Validator runs stateless cross-field checks before mutation. The only
// call-out is the balance group lookup for reference checks.
type Validator struct {
	groups GroupFinder
}

// NewValidator constructs a validator.
func NewValidator(groups GroupFinder) (*Validator, error) {
	if groups == nil {
		return nil, errors.New("validator: nil group finder")
	}
	return &Validator{groups: groups}, nil
}

// IsAligned reports whether t falls exactly on a 15-minute boundary (UTC).
func IsAligned(t time.Time) bool {
	utc := t.UTC()
	return utc.Minute()%15 == 0 && utc.Second() == 0 && utc.Nanosecond() == 0
}

// BalanceGroupInput carries the fields checked before creating or
// updating a balance group.
type BalanceGroupInput struct {
	Name           string
	StartTime      time.Time
	EndTime        time.Time
	SettlementRule string
	TenantID       string
}

// ValidateBalanceGroup checks timeframe ordering, interval alignment and,
// when a settlement rule is given, that the referenced group exists and
// belongs to the same tenant.
func (v *Validator) ValidateBalanceGroup(ctx context.Context, in BalanceGroupInput) error {
	if !in.StartTime.Before(in.EndTime) {
		return ErrInvalidTimeframe
	}
	if !IsAligned(in.StartTime) || !IsAligned(in.EndTime) {
		return ErrInvalidAlignment
	}
	if in.SettlementRule != "" {
		rule, err := v.groups.FindByID(ctx, in.SettlementRule)
		if err != nil {
			return err
		}
		if rule == nil {
			return ErrInvalidSettlementRule
		}
		if rule.TenantID != in.TenantID {
			return ErrInvalidTenantReference
		}
	}
	return nil
}

// TransactionInput carries the fields checked before creating a transaction.
type TransactionInput struct {
	SourceID      string
	DestinationID string
	StartTime     time.Time
	EndTime       time.Time
	EnergyAmount  float64
	TenantID      string
}

// ValidateTransaction checks timeframe, amount, alignment, endpoint
// existence, tenant consistency, validity-window containment and
// endpoint lifecycle status.
func (v *Validator) ValidateTransaction(ctx context.Context, in TransactionInput) error {
	if !in.StartTime.Before(in.EndTime) {
		return ErrInvalidTimeframe
	}
	if in.EnergyAmount <= 0 {
		return ErrInvalidEnergyAmount
	}
	if !IsAligned(in.StartTime) || !IsAligned(in.EndTime) {
		return ErrInvalidAlignment
	}
	if in.SourceID == in.DestinationID {
		return ErrSameBalanceGroup
	}

	source, err := v.groups.FindByID(ctx, in.SourceID)
	if err != nil {
		return err
	}
	destination, err := v.groups.FindByID(ctx, in.DestinationID)
	if err != nil {
		return err
	}
	if source == nil || destination == nil {
		return ErrInvalidBalanceGroup
	}
	if source.TenantID != in.TenantID || destination.TenantID != in.TenantID {
		return ErrInvalidTenantReference
	}
	if !source.Covers(in.StartTime, in.EndTime) || !destination.Covers(in.StartTime, in.EndTime) {
		return ErrInvalidTimeframe
	}
	if source.IsFinal() || destination.IsFinal() {
		return ErrBalanceGroupFinal
	}
	return nil
}

// SettlementInput carries the fields checked for a settlement entry.
type SettlementInput struct {
	BalanceGroupID string
	TargetGroupID  string
	EnergyAmount   float64
	IntervalStart  time.Time
	IntervalEnd    time.Time
	TenantID       string
}

// ValidateSettlement checks that both the party and its target group
// exist under the tenant and that the interval sits on the 15-minute grid.
func (v *Validator) ValidateSettlement(ctx context.Context, in SettlementInput) error {
	party, err := v.groups.FindByID(ctx, in.BalanceGroupID)
	if err != nil {
		return err
	}
	target, err := v.groups.FindByID(ctx, in.TargetGroupID)
	if err != nil {
		return err
	}
	if party == nil || target == nil {
		return ErrInvalidBalanceGroup
	}
	if party.TenantID != in.TenantID || target.TenantID != in.TenantID {
		return ErrInvalidTenantReference
	}
	if !IsAligned(in.IntervalStart) || !IsAligned(in.IntervalEnd) {
		return ErrInvalidAlignment
	}
	return nil
}

// NextIntervalStart returns the first grid point at or after t.
func NextIntervalStart(t time.Time) time.Time {
	utc := t.UTC()
	if IsAligned(utc) {
		return utc
	}
	truncated := utc.Truncate(interval.Duration)
	return truncated.Add(interval.Duration)
}
