package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Errors shared by the schedule writes.  The per-entity not-found
// sentinels live next to their repositories.

// ErrDanglingReference is returned when MySQL rejects a schedule write
// because its movie or actor vanished after the handler's existence check
// (error 1452, foreign key constraint fails). Handlers should translate
// this into an HTTP 400 response naming the missing id.
var ErrDanglingReference = errors.New("referenced movie or actor does not exist")

// mysqlErrNoReferencedRow is "Cannot add or update a child row: a foreign
// key constraint fails".
const mysqlErrNoReferencedRow = 1452

func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrNoReferencedRow
}
