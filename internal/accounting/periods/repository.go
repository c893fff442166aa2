package periods

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// Repository stores period statuses. Months without a row are open.
type Repository interface {
	Get(ctx context.Context, organizationID int64, month Month) (Period, error)
	Upsert(ctx context.Context, p Period) error
	List(ctx context.Context, organizationID int64) ([]Period, error)
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

func (r *repository) Get(ctx context.Context, organizationID int64, month Month) (Period, error) {
	p := Period{OrganizationID: organizationID, Month: month}
	err := r.tx.Conn(ctx).QueryRow(ctx, `SELECT status, changed_by, updated_at FROM accounting_periods
WHERE organization_id=$1 AND period=$2`, organizationID, month.String()).Scan(&p.Status, &p.ChangedBy, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		p.Status = PeriodStatusOpen
		return p, nil
	}
	return p, err
}

func (r *repository) Upsert(ctx context.Context, p Period) error {
	_, err := r.tx.Conn(ctx).Exec(ctx, `INSERT INTO accounting_periods (organization_id, period, status, changed_by)
VALUES ($1,$2,$3,$4)
ON CONFLICT (organization_id, period) DO UPDATE SET status=EXCLUDED.status, changed_by=EXCLUDED.changed_by, updated_at=NOW()`,
		p.OrganizationID, p.Month.String(), p.Status, p.ChangedBy)
	return err
}

func (r *repository) List(ctx context.Context, organizationID int64) ([]Period, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT period, status, changed_by, updated_at FROM accounting_periods
WHERE organization_id=$1 ORDER BY period`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		var raw string
		p := Period{OrganizationID: organizationID}
		if err := rows.Scan(&raw, &p.Status, &p.ChangedBy, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Month, err = ParseMonth(raw); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
