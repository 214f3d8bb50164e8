// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that a row cannot be removed because
// reservations or vehicles still reference it, while ErrDuplicate
// reports a violated unique key such as an email or license plate.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete matches no
// row, or when an insert references a parent row that does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a group that vehicles or reservations still point to.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("duplicate")

// ErrConstraint is returned when a row fails a CHECK constraint, such as
// a reservation whose return_at is not after pickup_at.
var ErrConstraint = errors.New("constraint violated")

// MySQL server error numbers translated by mapErr.
const (
	errDupEntry         = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	errRowIsReferenced2 = 1217
	errNoReferencedRow2 = 1216
	errCheckViolated    = 3819
)

// mapErr converts driver errors into the package sentinels.  Errors it
// does not recognise are returned unchanged.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return fmt.Errorf("%w: %s", ErrDuplicate, me.Message)
		case errRowIsReferenced, errRowIsReferenced2:
			return fmt.Errorf("%w: %s", ErrConflict, me.Message)
		case errNoReferencedRow, errNoReferencedRow2:
			return fmt.Errorf("%w: %s", ErrNotFound, me.Message)
		case errCheckViolated:
			return fmt.Errorf("%w: %s", ErrConstraint, me.Message)
		}
	}
	return err
}

// affected turns a zero RowsAffected into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
