package domain

import "errors"

var (
	ErrStoreUnavailable    = errors.New("record store unavailable")
	ErrUnknownEntityType   = errors.New("unknown entity type")
	ErrMailAccountNotFound = errors.New("no mail account connected")
)
