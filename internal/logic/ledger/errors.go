package ledger

import "errors"

var (
	ErrNegativeAmount  = errors.New("negative resource amount")
	ErrInvalidAmount   = errors.New("invalid resource amount")
	ErrConservation    = errors.New("pool conservation violated")
	ErrAvailableExceed = errors.New("available exceeds limit")
)
