package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Domain errors surfaced to callers. Anything else coming out of the store is
// wrapped as ErrStorageUnavailable so handlers can distinguish user mistakes
// from infrastructure trouble.
var (
	ErrDuplicateHandle = errors.New("handle already exists")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrNotFound        = errors.New("record not found")

	ErrStorageUnavailable = errors.New("storage unavailable")
)

// mapUniqueViolation translates driver-specific unique-constraint failures
// into the matching domain error. Returns nil if err is not a unique violation.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			msg := sqliteErr.Error()
			switch {
			case strings.Contains(msg, "handle"):
				return ErrDuplicateHandle
			case strings.Contains(msg, "email"):
				return ErrDuplicateEmail
			}
			return fmt.Errorf("unique constraint violated: %w", err)
		}
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "handle"):
			return ErrDuplicateHandle
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrDuplicateEmail
		}
		return fmt.Errorf("unique constraint violated: %w", err)
	}

	return nil
}

// storageErr wraps an unexpected driver error as a storage failure.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
