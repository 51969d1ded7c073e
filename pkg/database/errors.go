package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"
)

const (
	classTransactionRollback = "40"
	classConnectionException = "08"
	foreignKeyViolation      = "23503"
	uniqueViolation          = "23505"
	numericValueOutOfRange   = "22003"
)

// IsTransient reports whether err is worth retrying: serialization failures,
// deadlocks and lost connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case classTransactionRollback, classConnectionException:
			return true
		}
	}
	return false
}

// IsForeignKeyViolation reports whether err was raised by a missing referenced row.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// IsUniqueViolation reports whether err was raised by a duplicate key.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// IsOutOfRange reports whether err was raised by a value overflowing its column type.
func IsOutOfRange(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == numericValueOutOfRange
}
