package validation

import "errors"

var (
	// ErrInvalidTimeframe flags a span whose start is not before its end,
	// or a transaction window outside an endpoint's validity window.
	ErrInvalidTimeframe = errors.New("validation: invalid timeframe")

	// ErrInvalidAlignment flags a boundary not on a 15-minute grid point.
	ErrInvalidAlignment = errors.New("validation: time must be aligned to 15-minute intervals")

	// ErrInvalidEnergyAmount flags a non-positive energy amount.
	ErrInvalidEnergyAmount = errors.New("validation: energy amount must be positive")

	// ErrInvalidSettlementRule flags a settlement rule referencing a
	// balance group that does not exist.
	ErrInvalidSettlementRule = errors.New("validation: settlement rule refers to unknown balance group")

	// ErrInvalidTenantReference flags a referenced entity owned by a
	// different tenant.
	ErrInvalidTenantReference = errors.New("validation: referenced entity belongs to a different tenant")

	// ErrInvalidBalanceGroup flags a missing transaction endpoint.
	ErrInvalidBalanceGroup = errors.New("validation: balance group not found")

	// ErrSameBalanceGroup flags a transaction whose source and
	// destination are the same balance group.
	ErrSameBalanceGroup = errors.New("validation: source and destination must differ")

	// ErrBalanceGroupFinal flags a transaction endpoint that is already final.
	ErrBalanceGroupFinal = errors.New("validation: balance group is already final")
)
