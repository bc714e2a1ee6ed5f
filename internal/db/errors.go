package db

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Sentinel errors for the store error taxonomy. Callers match with
// errors.Is; everything else wraps the underlying driver error.
var (
	// ErrStoreUnavailable means the store has been closed or never
	// opened. Fatal to the calling operation, never retried here.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConstraint means a uniqueness or foreign-key violation
	// (duplicate item id, dangling tag reference). The write did not
	// happen.
	ErrConstraint = errors.New("constraint violation")

	// ErrNotFound means the referenced item does not exist.
	ErrNotFound = errors.New("item not found")
)

// isConstraintErr reports whether err is a SQLite constraint failure.
func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}
