package config

import "errors"

var (
	ErrBelowMinimum   = errors.New("value below minimum")
	ErrUnknownStore   = errors.New("unknown store")
	ErrMissingSetting = errors.New("missing required setting")
)
