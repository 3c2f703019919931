package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique violation on the named
// constraint. On Postgres the server names the violated constraint, so the
// match is exact. The sqlite test driver only names the colliding columns
// ("UNIQUE constraint failed: users.email"), so the fallback matches the
// table_column form of the index name.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolationCode {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName == "" {
		return true
	}
	columns := strings.ReplaceAll(msg, ".", "_")
	return strings.Contains(columns, strings.TrimPrefix(constraintName, "idx_"))
}
