package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateCheckViolation      = "23514"

	constraintActiveSession = "uq_parking_sessions_vehicle_active"
)

// pgError extracts the SQLSTATE and constraint name from either driver's
// error type.
func pgError(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

func isUniqueViolation(err error) (constraint string, ok bool) {
	code, constraint, ok := pgError(err)
	return constraint, ok && code == sqlStateUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	code, _, ok := pgError(err)
	return ok && code == sqlStateForeignKeyViolation
}

func isCheckViolation(err error) bool {
	code, _, ok := pgError(err)
	return ok && code == sqlStateCheckViolation
}
