package database

import "errors"

// Sentinel errors shared by every repository implementation.
var (
	ErrNotFound  = errors.New("document not found")
	ErrConflict  = errors.New("document changed concurrently")
	ErrDuplicate = errors.New("duplicate document")
)
