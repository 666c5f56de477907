package store

import "errors"

var (
	// ErrNotFound is returned for a userID with no account record.
	ErrNotFound = errors.New("store: account not found")
	// ErrAlreadyExists is returned when Create is called twice for one userID.
	ErrAlreadyExists = errors.New("store: account already exists")
	// ErrPersistence wraps a failed snapshot write after the retry.
	ErrPersistence = errors.New("store: persist failed")
)
