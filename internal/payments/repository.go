package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// SequenceScope is the document_sequences scope for payment numbers.
const SequenceScope = "PAY"

// Repository persists payments.
type Repository interface {
	Get(ctx context.Context, organizationID, id int64) (Payment, error)
	List(ctx context.Context, filter ListFilter) ([]Payment, error)
	Totals(ctx context.Context, organizationID int64, projectID *int64) (Totals, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, organizationID int64, day time.Time) (int64, error)
	Insert(ctx context.Context, p Payment) (Payment, error)
	GetForUpdate(ctx context.Context, organizationID, id int64) (Payment, error)
	// MarkConfirmed only succeeds from pending.
	MarkConfirmed(ctx context.Context, id, entryID, actorID int64, at time.Time) error
	MarkCancelled(ctx context.Context, id int64) error
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

const paymentColumns = `id, organization_id, project_id, number, amount, direction, status, type, method, counterparty,
description, payment_date, related_journal_entry_id, created_by, confirmed_by, confirmed_at, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrganizationID, &p.ProjectID, &p.Number, &p.Amount, &p.Direction, &p.Status, &p.Type, &p.Method,
		&p.Counterparty, &p.Description, &p.PaymentDate, &p.RelatedJournalEntryID, &p.CreatedBy, &p.ConfirmedBy, &p.ConfirmedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	return p, err
}

func (r *repository) Get(ctx context.Context, organizationID, id int64) (Payment, error) {
	return scanPayment(r.tx.Conn(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE organization_id=$1 AND id=$2`, organizationID, id))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Payment, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT `+paymentColumns+` FROM payments
WHERE organization_id=$1
  AND ($2::bigint IS NULL OR project_id = $2)
  AND ($3 = '' OR status = $3)
  AND ($4 = '' OR direction = $4)
ORDER BY payment_date DESC, id DESC`, filter.OrganizationID, filter.ProjectID, string(filter.Status), string(filter.Direction))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Totals(ctx context.Context, organizationID int64, projectID *int64) (Totals, error) {
	var t Totals
	err := r.tx.Conn(ctx).QueryRow(ctx, `SELECT
	COALESCE(SUM(amount) FILTER (WHERE status='confirmed' AND direction='incoming'), 0),
	COALESCE(SUM(amount) FILTER (WHERE status='confirmed' AND direction='outgoing'), 0),
	COALESCE(SUM(amount) FILTER (WHERE status='pending' AND direction='incoming'), 0),
	COALESCE(SUM(amount) FILTER (WHERE status='pending' AND direction='outgoing'), 0)
FROM payments WHERE organization_id=$1 AND ($2::bigint IS NULL OR project_id = $2)`, organizationID, projectID).
		Scan(&t.ConfirmedIncoming, &t.ConfirmedOutgoing, &t.PendingIncoming, &t.PendingOutgoing)
	return t, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.tx.WithinTxIsolation(ctx, db.LedgerWriteIsolation, func(ctx context.Context) error {
		return fn(ctx, &txRepository{q: r.tx.Conn(ctx)})
	})
}

type txRepository struct {
	q db.Querier
}

func (r *txRepository) NextNumber(ctx context.Context, organizationID int64, day time.Time) (int64, error) {
	return db.NextSequence(ctx, r.q, organizationID, SequenceScope, day)
}

func (r *txRepository) Insert(ctx context.Context, p Payment) (Payment, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO payments (organization_id, project_id, number, amount, direction, status, type, method, counterparty, description, payment_date, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id, created_at`,
		p.OrganizationID, p.ProjectID, p.Number, p.Amount, p.Direction, p.Status, p.Type, p.Method, p.Counterparty, p.Description, p.PaymentDate, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt)
	return p, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, organizationID, id int64) (Payment, error) {
	return scanPayment(r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE organization_id=$1 AND id=$2 FOR UPDATE`, organizationID, id))
}

func (r *txRepository) MarkConfirmed(ctx context.Context, id, entryID, actorID int64, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE payments SET status='confirmed', related_journal_entry_id=$2, confirmed_by=$3, confirmed_at=$4
WHERE id=$1 AND status='pending'`, id, entryID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyConfirmed
	}
	return nil
}

func (r *txRepository) MarkCancelled(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE payments SET status='cancelled' WHERE id=$1 AND status <> 'cancelled'`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentCancelled
	}
	return nil
}

