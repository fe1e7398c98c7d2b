package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique constraint,
	// e.g. a duplicate user email.
	ErrConflict = errors.New("conflict")
)

// isUniqueViolation detects unique-constraint failures across the supported
// drivers. modernc.org/sqlite reports "UNIQUE constraint failed"; pgdriver
// surfaces SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE=23505") ||
		strings.Contains(msg, "duplicate key value")
}
