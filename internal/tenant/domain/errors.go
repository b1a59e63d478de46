package tenant

import "errors"

var (
	ErrNotFound      = errors.New("tenant: not found")
	ErrInvalidStatus = errors.New("tenant: invalid status")
	ErrInvalidInput  = errors.New("tenant: name and identifier required")
	ErrNilTenant     = errors.New("tenant: nil tenant")
)
