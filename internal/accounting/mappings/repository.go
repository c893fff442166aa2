package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// ErrMappingNotFound indicates no explicit mapping row exists.
var ErrMappingNotFound = errors.New("accounting: account mapping not found")

// Repository stores per-organization account mappings.
type Repository interface {
	Get(ctx context.Context, organizationID int64, module, key string) (AccountMapping, error)
	Upsert(ctx context.Context, m AccountMapping) error
	InsertIfMissing(ctx context.Context, m AccountMapping) error
	List(ctx context.Context, organizationID int64) ([]AccountMapping, error)
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, organizationID int64, module, key string) (AccountMapping, error) {
	var m AccountMapping
	err := r.tx.Conn(ctx).QueryRow(ctx, `SELECT organization_id, module, key, account_code, created_at, updated_at
FROM account_mappings WHERE organization_id=$1 AND module=$2 AND key=$3`, organizationID, module, key).
		Scan(&m.OrganizationID, &m.Module, &m.Key, &m.AccountCode, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, ErrMappingNotFound
		}
		return AccountMapping{}, err
	}
	return m, nil
}

func (r *repository) Upsert(ctx context.Context, m AccountMapping) error {
	_, err := r.tx.Conn(ctx).Exec(ctx, `INSERT INTO account_mappings (organization_id, module, key, account_code)
VALUES ($1,$2,$3,$4)
ON CONFLICT (organization_id, module, key) DO UPDATE SET account_code=EXCLUDED.account_code, updated_at=NOW()`,
		m.OrganizationID, m.Module, m.Key, m.AccountCode)
	return err
}

func (r *repository) InsertIfMissing(ctx context.Context, m AccountMapping) error {
	_, err := r.tx.Conn(ctx).Exec(ctx, `INSERT INTO account_mappings (organization_id, module, key, account_code)
VALUES ($1,$2,$3,$4) ON CONFLICT (organization_id, module, key) DO NOTHING`,
		m.OrganizationID, m.Module, m.Key, m.AccountCode)
	return err
}

func (r *repository) List(ctx context.Context, organizationID int64) ([]AccountMapping, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT organization_id, module, key, account_code, created_at, updated_at
FROM account_mappings WHERE organization_id=$1 ORDER BY module, key`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		var m AccountMapping
		if err := rows.Scan(&m.OrganizationID, &m.Module, &m.Key, &m.AccountCode, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
