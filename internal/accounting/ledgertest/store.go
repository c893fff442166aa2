// Package ledgertest provides an in-memory, transactional implementation of
// every ledger repository so services can be exercised without Postgres.
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/budgets"
	"github.com/nekorytaylor666/stroika-sub000/internal/expenses"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	_ "github.com/nekorytaylor666/stroika-sub000/internal/testing/guard"
)

type txKey struct{}

type mappingKey struct {
	org         int64
	module, key string
}

type periodKey struct {
	org    int64
	period string
}

type sequenceKey struct {
	org   int64
	scope string
	day   string
}

type sourceKey struct {
	org    int64
	module string
	ref    string
}

type balanceKey struct {
	account, project int64
	period           string
}

type tables struct {
	ids       map[string]int64
	accounts  map[int64]accounts.Account
	mappings  map[mappingKey]mappings.AccountMapping
	periods   map[periodKey]periods.Period
	sequences map[sequenceKey]int64
	entries   map[int64]journals.JournalEntry
	sources   map[sourceKey]int64
	balances  map[balanceKey]balances.AccountBalance
	payments  map[int64]payments.Payment
	expenses  map[int64]expenses.Expense
	budgets   map[int64]budgets.Budget
	revisions []budgets.Revision
}

func newTables() *tables {
	return &tables{
		ids:       map[string]int64{},
		accounts:  map[int64]accounts.Account{},
		mappings:  map[mappingKey]mappings.AccountMapping{},
		periods:   map[periodKey]periods.Period{},
		sequences: map[sequenceKey]int64{},
		entries:   map[int64]journals.JournalEntry{},
		sources:   map[sourceKey]int64{},
		balances:  map[balanceKey]balances.AccountBalance{},
		payments:  map[int64]payments.Payment{},
		expenses:  map[int64]expenses.Expense{},
		budgets:   map[int64]budgets.Budget{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.ids {
		c.ids[k] = v
	}
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.mappings {
		c.mappings[k] = v
	}
	for k, v := range t.periods {
		c.periods[k] = v
	}
	for k, v := range t.sequences {
		c.sequences[k] = v
	}
	for k, v := range t.entries {
		v.Lines = append([]journals.JournalLine(nil), v.Lines...)
		c.entries[k] = v
	}
	for k, v := range t.sources {
		c.sources[k] = v
	}
	for k, v := range t.balances {
		c.balances[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	for k, v := range t.expenses {
		c.expenses[k] = v
	}
	for k, v := range t.budgets {
		v.Lines = append([]budgets.Line(nil), v.Lines...)
		c.budgets[k] = v
	}
	c.revisions = append([]budgets.Revision(nil), t.revisions...)
	return c
}

func (t *tables) nextID(table string) int64 {
	t.ids[table]++
	return t.ids[table]
}

// Store holds every ledger table behind one mutex. A transaction holds the
// mutex for its whole duration and restores a snapshot on error, so
// transactions are serializable and failed ones leave no trace.
type Store struct {
	mu   sync.Mutex
	data *tables
	now  func() time.Time

	// InvalidationCount counts InvalidateBalances calls that removed rows or
	// targeted accounts.
	InvalidationCount int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newTables(), now: time.Now}
}

// SetNow overrides the clock stamped on created rows.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// WithinTx joins the transaction bound to ctx or starts a new one.
func (s *Store) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}
	s.mu.Lock()
	snapshot := s.data.clone()
	ctx, hooks := db.WithCommitHooks(context.WithValue(ctx, txKey{}, s))
	if err := fn(ctx); err != nil {
		s.data = snapshot
		s.mu.Unlock()
		hooks.Discard()
		return err
	}
	s.mu.Unlock()
	hooks.Run(ctx)
	return nil
}

// read runs fn with the store locked unless ctx already holds the lock.
func (s *Store) read(ctx context.Context, fn func(*tables) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// write is read for mutations outside an explicit transaction; each call
// is atomic on its own.
func (s *Store) write(ctx context.Context, fn func(*tables) error) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(s.data)
	})
}

// CachedBalanceRows reports how many account_balances rows exist.
func (s *Store) CachedBalanceRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.balances)
}

// EntryCount reports how many journal entries exist.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.entries)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func projectMatches(filter *int64, value *int64) bool {
	if filter == nil {
		return true
	}
	return value != nil && *value == *filter
}
