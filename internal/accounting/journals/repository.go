package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
)

// SequenceScope is the document_sequences scope for entry numbers.
const SequenceScope = "JE"

// Repository encapsulates DB operations for journals.
type Repository interface {
	GetEntry(ctx context.Context, organizationID, id int64) (JournalEntry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	FindUnbalancedPosted(ctx context.Context, organizationID int64) ([]Imbalance, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	NextEntrySequence(ctx context.Context, organizationID int64, day time.Time) (int64, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	GetEntryForUpdate(ctx context.Context, organizationID, id int64) (JournalEntry, error)
	MarkPosted(ctx context.Context, id, approvedBy int64, at time.Time) error
	MarkCancelled(ctx context.Context, id int64, at time.Time) error
	// InvalidateBalances drops every cached balance row of the accounts.
	InvalidateBalances(ctx context.Context, accountIDs []int64) error
	LinkSource(ctx context.Context, organizationID int64, ref SourceRef, entryID int64) error
	FindSource(ctx context.Context, organizationID int64, ref SourceRef) (int64, bool, error)
}

type repository struct {
	tx *db.TxManager
}

// NewRepository returns the Postgres implementation.
func NewRepository(tx *db.TxManager) Repository {
	return &repository{tx: tx}
}

const entryColumns = `id, organization_id, project_id, entry_number, entry_date, description, type, status,
related_payment_id, created_by, approved_by, created_at, posted_at, cancelled_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.OrganizationID, &e.ProjectID, &e.EntryNumber, &e.Date, &e.Description, &e.Type, &e.Status,
		&e.RelatedPaymentID, &e.CreatedBy, &e.ApprovedBy, &e.CreatedAt, &e.PostedAt, &e.CancelledAt)
	return e, err
}

func loadLines(ctx context.Context, q db.Querier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT l.id, l.journal_entry_id, l.account_id, a.code, l.debit, l.credit, l.description, l.analytics_code, l.tax_amount
FROM journal_lines l JOIN accounts a ON a.id = l.account_id
WHERE l.journal_entry_id=$1 ORDER BY l.id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		var tax decimal.NullDecimal
		if err := rows.Scan(&line.ID, &line.JournalEntryID, &line.AccountID, &line.AccountCode, &line.Debit, &line.Credit, &line.Description, &line.AnalyticsCode, &tax); err != nil {
			return nil, err
		}
		if tax.Valid {
			line.TaxAmount = &tax.Decimal
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) GetEntry(ctx context.Context, organizationID, id int64) (JournalEntry, error) {
	q := r.tx.Conn(ctx)
	entry, err := scanEntry(q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE organization_id=$1 AND id=$2`, organizationID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	entry.Lines, err = loadLines(ctx, q, entry.ID)
	return entry, err
}

func (r *repository) ListEntries(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE organization_id=$1
  AND ($2::bigint IS NULL OR project_id = $2)
  AND ($3 = '' OR status = $3)
  AND ($4 = '' OR type = $4)
  AND ($5::date IS NULL OR entry_date >= $5)
  AND ($6::date IS NULL OR entry_date <= $6)
ORDER BY entry_date DESC, id DESC
LIMIT $7 OFFSET $8`, filter.OrganizationID, filter.ProjectID, string(filter.Status), string(filter.Type), filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) FindUnbalancedPosted(ctx context.Context, organizationID int64) ([]Imbalance, error) {
	rows, err := r.tx.Conn(ctx).Query(ctx, `SELECT e.id, e.entry_number, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_entries e LEFT JOIN journal_lines l ON l.journal_entry_id = e.id
WHERE e.status='posted' AND ($1 = 0 OR e.organization_id = $1)
GROUP BY e.id, e.entry_number
HAVING ABS(COALESCE(SUM(l.debit),0) - COALESCE(SUM(l.credit),0)) > 0.01
    OR COALESCE(SUM(l.debit),0) = 0
ORDER BY e.id`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Imbalance
	for rows.Next() {
		var im Imbalance
		if err := rows.Scan(&im.EntryID, &im.EntryNumber, &im.Debit, &im.Credit); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.tx.WithinTxIsolation(ctx, db.LedgerWriteIsolation, func(ctx context.Context) error {
		return fn(ctx, &txRepository{q: r.tx.Conn(ctx)})
	})
}

type txRepository struct {
	q db.Querier
}

func (r *txRepository) NextEntrySequence(ctx context.Context, organizationID int64, day time.Time) (int64, error) {
	return db.NextSequence(ctx, r.q, organizationID, SequenceScope, day)
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	err := r.q.QueryRow(ctx, `INSERT INTO journal_entries (organization_id, project_id, entry_number, entry_date, description, type, status, related_payment_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		entry.OrganizationID, entry.ProjectID, entry.EntryNumber, entry.Date, entry.Description, entry.Type, entry.Status, entry.RelatedPaymentID, entry.CreatedBy).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_journal_entries_number") {
			return JournalEntry{}, fmt.Errorf("accounting: entry number %s already used: %w", entry.EntryNumber, err)
		}
		return JournalEntry{}, err
	}
	for i := range entry.Lines {
		line := &entry.Lines[i]
		line.JournalEntryID = entry.ID
		if err := r.q.QueryRow(ctx, `INSERT INTO journal_lines (journal_entry_id, account_id, debit, credit, description, analytics_code, tax_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			entry.ID, line.AccountID, line.Debit, line.Credit, line.Description, line.AnalyticsCode, line.TaxAmount).Scan(&line.ID); err != nil {
			return JournalEntry{}, err
		}
	}
	return entry, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, organizationID, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE organization_id=$1 AND id=$2 FOR UPDATE`, organizationID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	entry.Lines, err = loadLines(ctx, r.q, entry.ID)
	return entry, err
}

func (r *txRepository) MarkPosted(ctx context.Context, id, approvedBy int64, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE journal_entries SET status='posted', approved_by=$2, posted_at=$3 WHERE id=$1 AND status='draft'`, id, approvedBy, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAlreadyPosted
	}
	return nil
}

func (r *txRepository) MarkCancelled(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE journal_entries SET status='cancelled', cancelled_at=$2 WHERE id=$1 AND status <> 'cancelled'`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAlreadyCancelled
	}
	return nil
}

// InvalidateBalances locks the account rows first so a concurrent balance
// recompute either finishes before the delete or starts after the commit.
// WithTx runs at db.LedgerWriteIsolation, so the delete sees cache rows a
// recompute committed while the lock was pending.
func (r *txRepository) InvalidateBalances(ctx context.Context, accountIDs []int64) error {
	if len(accountIDs) == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, `SELECT id FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, accountIDs); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `DELETE FROM account_balances WHERE account_id = ANY($1)`, accountIDs)
	return err
}

func (r *txRepository) LinkSource(ctx context.Context, organizationID int64, ref SourceRef, entryID int64) error {
	_, err := r.q.Exec(ctx, `INSERT INTO source_links (organization_id, module, ref_id, journal_entry_id) VALUES ($1,$2,$3,$4)`,
		organizationID, ref.Module, ref.ID, entryID)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_source_links") {
			return shared.ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *txRepository) FindSource(ctx context.Context, organizationID int64, ref SourceRef) (int64, bool, error) {
	var entryID int64
	err := r.q.QueryRow(ctx, `SELECT journal_entry_id FROM source_links WHERE organization_id=$1 AND module=$2 AND ref_id=$3`,
		organizationID, ref.Module, ref.ID).Scan(&entryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return entryID, true, nil
}
