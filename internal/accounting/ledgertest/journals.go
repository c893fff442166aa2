package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
)

// Journals returns the journal repository.
func (s *Store) Journals() journals.Repository { return journalRepo{s} }

type journalRepo struct{ s *Store }

func (t *tables) nextSequence(org int64, scope string, at time.Time) int64 {
	k := sequenceKey{org, scope, at.Format("2006-01-02")}
	t.sequences[k]++
	return t.sequences[k]
}

// entry returns a copy with account codes filled from the chart, like the
// join in the SQL implementation.
func (t *tables) entry(org, id int64) (journals.JournalEntry, error) {
	e, ok := t.entries[id]
	if !ok || e.OrganizationID != org {
		return journals.JournalEntry{}, shared.ErrJournalNotFound
	}
	e.Lines = append([]journals.JournalLine(nil), e.Lines...)
	for i := range e.Lines {
		e.Lines[i].AccountCode = t.accounts[e.Lines[i].AccountID].Code
	}
	return e, nil
}

func (r journalRepo) GetEntry(ctx context.Context, organizationID, id int64) (journals.JournalEntry, error) {
	var e journals.JournalEntry
	err := r.s.read(ctx, func(t *tables) error {
		var err error
		e, err = t.entry(organizationID, id)
		return err
	})
	return e, err
}

func (r journalRepo) ListEntries(ctx context.Context, filter journals.ListFilter) ([]journals.JournalEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []journals.JournalEntry
	err := r.s.read(ctx, func(t *tables) error {
		for _, e := range t.entries {
			if e.OrganizationID != filter.OrganizationID || !projectMatches(filter.ProjectID, e.ProjectID) {
				continue
			}
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			if filter.Type != "" && e.Type != filter.Type {
				continue
			}
			if filter.From != nil && e.Date.Before(day(*filter.From)) {
				continue
			}
			if filter.To != nil && e.Date.After(day(*filter.To)) {
				continue
			}
			e.Lines = nil
			out = append(out, e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Offset >= len(out) {
		return nil, err
	}
	out = out[filter.Offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r journalRepo) FindUnbalancedPosted(ctx context.Context, organizationID int64) ([]journals.Imbalance, error) {
	var out []journals.Imbalance
	err := r.s.read(ctx, func(t *tables) error {
		for _, e := range t.entries {
			if e.Status != journals.EntryStatusPosted {
				continue
			}
			if organizationID != 0 && e.OrganizationID != organizationID {
				continue
			}
			debit, credit := e.Totals()
			if debit.IsZero() || debit.Sub(credit).Abs().GreaterThan(shared.Epsilon) {
				out = append(out, journals.Imbalance{EntryID: e.ID, EntryNumber: e.EntryNumber, Debit: debit, Credit: credit})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID < out[j].EntryID })
	return out, err
}

func (r journalRepo) WithTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	return r.s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, journalTx{r.s})
	})
}

// CorruptEntry overwrites the first line's debit of a stored entry so
// integrity checks have something to find.
func (s *Store) CorruptEntry(id int64, debit decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.data.entries[id]
	e.Lines = append([]journals.JournalLine(nil), e.Lines...)
	e.Lines[0].Debit = debit
	s.data.entries[id] = e
}

type journalTx struct{ s *Store }

func (r journalTx) NextEntrySequence(_ context.Context, organizationID int64, at time.Time) (int64, error) {
	return r.s.data.nextSequence(organizationID, journals.SequenceScope, at), nil
}

func (r journalTx) InsertEntry(_ context.Context, entry journals.JournalEntry) (journals.JournalEntry, error) {
	t := r.s.data
	for _, e := range t.entries {
		if e.OrganizationID == entry.OrganizationID && e.EntryNumber == entry.EntryNumber {
			return journals.JournalEntry{}, fmt.Errorf("accounting: entry number %s already used", entry.EntryNumber)
		}
	}
	entry.ID = t.nextID("journal_entries")
	entry.Date = day(entry.Date)
	entry.CreatedAt = r.s.now()
	entry.Lines = append([]journals.JournalLine(nil), entry.Lines...)
	for i := range entry.Lines {
		if _, ok := t.accounts[entry.Lines[i].AccountID]; !ok {
			return journals.JournalEntry{}, fmt.Errorf("accounting: account %d does not exist", entry.Lines[i].AccountID)
		}
		entry.Lines[i].ID = t.nextID("journal_lines")
		entry.Lines[i].JournalEntryID = entry.ID
	}
	t.entries[entry.ID] = entry
	return entry, nil
}

func (r journalTx) GetEntryForUpdate(_ context.Context, organizationID, id int64) (journals.JournalEntry, error) {
	return r.s.data.entry(organizationID, id)
}

func (r journalTx) MarkPosted(_ context.Context, id, approvedBy int64, at time.Time) error {
	e, ok := r.s.data.entries[id]
	if !ok || e.Status != journals.EntryStatusDraft {
		return shared.ErrAlreadyPosted
	}
	e.Status = journals.EntryStatusPosted
	e.ApprovedBy = &approvedBy
	e.PostedAt = &at
	r.s.data.entries[id] = e
	return nil
}

func (r journalTx) MarkCancelled(_ context.Context, id int64, at time.Time) error {
	e, ok := r.s.data.entries[id]
	if !ok || e.Status == journals.EntryStatusCancelled {
		return shared.ErrAlreadyCancelled
	}
	e.Status = journals.EntryStatusCancelled
	e.CancelledAt = &at
	r.s.data.entries[id] = e
	return nil
}

func (r journalTx) InvalidateBalances(_ context.Context, accountIDs []int64) error {
	if len(accountIDs) == 0 {
		return nil
	}
	drop := make(map[int64]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		drop[id] = struct{}{}
	}
	for k := range r.s.data.balances {
		if _, ok := drop[k.account]; ok {
			delete(r.s.data.balances, k)
		}
	}
	r.s.InvalidationCount++
	return nil
}

func (r journalTx) LinkSource(_ context.Context, organizationID int64, ref journals.SourceRef, entryID int64) error {
	k := sourceKey{organizationID, ref.Module, ref.ID.String()}
	if _, ok := r.s.data.sources[k]; ok {
		return shared.ErrSourceAlreadyLinked
	}
	r.s.data.sources[k] = entryID
	return nil
}

func (r journalTx) FindSource(_ context.Context, organizationID int64, ref journals.SourceRef) (int64, bool, error) {
	id, ok := r.s.data.sources[sourceKey{organizationID, ref.Module, ref.ID.String()}]
	return id, ok, nil
}
