package balancegroup

import "errors"

var (
	ErrNotFound     = errors.New("balance group: not found")
	ErrAlreadyFinal = errors.New("balance group: already closed")
	ErrNilGroup     = errors.New("balance group: nil group")
)
