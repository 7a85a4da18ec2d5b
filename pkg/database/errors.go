package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// pqUniqueViolation is the SQLSTATE postgres reports for a unique index conflict.
const pqUniqueViolation = "23505"

// ConstraintViolation reports that the store rejected a write because a value
// that must be unique already exists. Repos return it in place of the
// driver-specific error so services never match on vendor codes.
type ConstraintViolation struct {
	// Constraint is the constraint name (postgres) or the table.column list (sqlite).
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	if e.Constraint == "" {
		return "unique constraint violated"
	}
	return "unique constraint violated: " + e.Constraint
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// AsConstraintViolation classifies err. It returns a *ConstraintViolation and
// true when err is a unique violation from either supported driver.
func AsConstraintViolation(err error) (*ConstraintViolation, bool) {
	if err == nil {
		return nil, false
	}
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv, true
	}
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == pqUniqueViolation {
		return &ConstraintViolation{Constraint: pe.Constraint, Err: err}, true
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return &ConstraintViolation{Constraint: sqliteConstraintTarget(se.Error()), Err: err}, true
	}
	return nil, false
}

// sqliteConstraintTarget extracts "users.username" from
// "UNIQUE constraint failed: users.username".
func sqliteConstraintTarget(msg string) string {
	if i := strings.LastIndex(msg, "failed: "); i >= 0 {
		return msg[i+len("failed: "):]
	}
	return ""
}
