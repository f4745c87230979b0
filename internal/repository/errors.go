// Package repository holds the data access layer.  Errors defined here
// are sentinel values that let the service layer distinguish missing
// rows, uniqueness conflicts and stock shortages from plain database
// failures.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a product that still
// has orders.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a profile email is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrInsufficientStock is returned when a product cannot cover the
// requested quantity at the moment of the stock update.
var ErrInsufficientStock = errors.New("insufficient stock")

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool {
	return mysqlErrno(err) == mysqlDuplicateEntry
}

// isReferenced reports a foreign key violation on delete.
func isReferenced(err error) bool {
	return mysqlErrno(err) == mysqlRowIsReferenced
}
