package store

import "errors"

var (
	// ErrDuplicateID is returned when a record id is already taken.
	ErrDuplicateID = errors.New("record id already exists")

	ErrUnknownBackend = errors.New("unknown store backend")
)
