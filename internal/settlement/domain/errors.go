package settlement

import "errors"

var (
	// ErrInvalidTenant covers both an unknown transaction and one owned
	// by another tenant at the calculator boundary; the two are not
	// distinguished there so absence is not leaked across tenants.
	ErrInvalidTenant = errors.New("settlement: invalid tenant")

	// ErrTransactionFinalized rejects calculation for a transaction that
	// already reached its terminal status.
	ErrTransactionFinalized = errors.New("settlement: transaction is already finalized")

	ErrNilEntry = errors.New("settlement: nil entry")
)
