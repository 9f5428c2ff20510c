package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgErrForeignKeyViolation is the Postgres SQLSTATE for foreign_key_violation.
const pgErrForeignKeyViolation = "23503"

// IsForeignKeyViolation reports whether err was raised by a foreign key constraint
// on either supported backend.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

