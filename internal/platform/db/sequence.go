package db

import (
	"context"
	"time"
)

// NextSequence allocates the next per-organization counter for scope and day.
func NextSequence(ctx context.Context, q Querier, organizationID int64, scope string, day time.Time) (int64, error) {
	var seq int64
	err := q.QueryRow(ctx, `INSERT INTO document_sequences (organization_id, scope, seq_date, last_value)
VALUES ($1, $2, $3, 1)
ON CONFLICT (organization_id, scope, seq_date) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`, organizationID, scope, day.Format("2006-01-02")).Scan(&seq)
	return seq, err
}

// IsUniqueViolation reports whether err is a Postgres unique violation,
// optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := asPgError(err)
	if !ok || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsSerializationFailure reports whether err is a Postgres serialization
// failure (40001) or deadlock (40P01).
func IsSerializationFailure(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
