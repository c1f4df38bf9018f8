package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located, or is owned by someone else.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("repository: duplicate")
)
