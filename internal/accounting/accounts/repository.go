package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// Repository persists chart of accounts rows.
type Repository interface {
	Insert(ctx context.Context, acc Account) (Account, error)
	InsertIfMissing(ctx context.Context, acc Account) (bool, error)
	GetByCode(ctx context.Context, organizationID int64, code string) (Account, error)
	GetByID(ctx context.Context, organizationID, id int64) (Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, error)
	SetActive(ctx context.Context, organizationID int64, code string, active bool) (Account, error)
	Organizations(ctx context.Context) ([]int64, error)
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

const accountColumns = `id, organization_id, code, name, type, category, parent_id, is_active, description, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID, &a.IsActive, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Insert(ctx context.Context, acc Account) (Account, error) {
	row := r.tx.Conn(ctx).QueryRow(ctx, `INSERT INTO accounts (organization_id, code, name, type, category, parent_id, is_active, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING `+accountColumns,
		acc.OrganizationID, acc.Code, acc.Name, acc.Type, acc.Category, acc.ParentID, acc.IsActive, acc.Description)
	out, err := scanAccount(row)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_accounts_org_code") {
			return Account{}, shared.ErrDuplicateAccount
		}
		return Account{}, err
	}
	return out, nil
}

func (r *repository) InsertIfMissing(ctx context.Context, acc Account) (bool, error) {
	tag, err := r.tx.Conn(ctx).Exec(ctx, `INSERT INTO accounts (organization_id, code, name, type, category, is_active, description)
VALUES ($1,$2,$3,$4,$5,TRUE,$6) ON CONFLICT ON CONSTRAINT uq_accounts_org_code DO NOTHING`,
		acc.OrganizationID, acc.Code, acc.Name, acc.Type, acc.Category, acc.Description)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) GetByCode(ctx context.Context, organizationID int64, code string) (Account, error) {
	acc, err := scanAccount(r.tx.Conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id=$1 AND code=$2`, organizationID, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, &shared.AccountNotFoundError{Code: code}
	}
	return acc, err
}

func (r *repository) GetByID(ctx context.Context, organizationID, id int64) (Account, error) {
	acc, err := scanAccount(r.tx.Conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE organization_id=$1 AND id=$2`, organizationID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, &shared.AccountNotFoundError{ID: id}
	}
	return acc, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Account, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT `+accountColumns+` FROM accounts
WHERE organization_id=$1 AND ($2 = '' OR type = $2) AND ($3 OR is_active)
ORDER BY code`, filter.OrganizationID, string(filter.Type), filter.IncludeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) SetActive(ctx context.Context, organizationID int64, code string, active bool) (Account, error) {
	acc, err := scanAccount(r.tx.Conn(ctx).QueryRow(ctx, `UPDATE accounts SET is_active=$3, updated_at=NOW()
WHERE organization_id=$1 AND code=$2 RETURNING `+accountColumns, organizationID, code, active))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, &shared.AccountNotFoundError{Code: code}
	}
	return acc, err
}

func (r *repository) Organizations(ctx context.Context) ([]int64, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT DISTINCT organization_id FROM accounts ORDER BY organization_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return r.tx.WithinTx(ctx, fn)
}
