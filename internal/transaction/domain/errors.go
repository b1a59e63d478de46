package transaction

import "errors"

var (
	ErrNotFound       = errors.New("transaction: not found")
	ErrInvalidTenant  = errors.New("transaction: invalid tenant")
	ErrNilTransaction = errors.New("transaction: nil transaction")
)
