package journals_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/platform/db"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

type pgLedger struct {
	org      int64
	accounts *accounts.Service
	repo     journals.Repository
	journals *journals.Service
	balances *balances.Materializer
}

func newPGLedger(t *testing.T) *pgLedger {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("LEDGER_TEST_PG_DSN"))
	if dsn == "" {
		t.Skip("set LEDGER_TEST_PG_DSN to run Postgres integration tests")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))

	tx := db.NewTxManager(pool)
	accountSvc := accounts.NewService(accounts.NewRepository(tx), mappings.NewService(mappings.NewRepository(tx)))
	repo := journals.NewRepository(tx)
	l := &pgLedger{
		org:      time.Now().UnixNano() % 1_000_000_000_000,
		accounts: accountSvc,
		repo:     repo,
		journals: journals.NewService(repo, accountSvc, periods.NewService(periods.NewRepository(tx)), core.NewAuditLogger(pool)),
		balances: balances.NewMaterializer(balances.NewRepository(tx), accountSvc),
	}
	_, err = accountSvc.SeedStandardChart(ctx, l.org)
	require.NoError(t, err)
	return l
}

func (l *pgLedger) draft(t *testing.T, amount string) journals.JournalEntry {
	t.Helper()
	in := transfer("51", "62", amount)
	in.OrganizationID = l.org
	entry, err := l.journals.CreateEntry(context.Background(), in)
	require.NoError(t, err)
	return entry
}

func TestPostgresPostingDropsBalanceCachedMidTransaction(t *testing.T) {
	l := newPGLedger(t)
	ctx := context.Background()
	entry := l.draft(t, "250")
	bank, err := l.accounts.Lookup(ctx, l.org, "51")
	require.NoError(t, err)
	q := balances.Query{OrganizationID: l.org, AccountID: bank.ID, Period: periods.MonthOf(june)}

	err = l.repo.WithTx(ctx, func(txCtx context.Context, tx journals.TxRepository) error {
		current, err := tx.GetEntryForUpdate(txCtx, l.org, entry.ID)
		if err != nil {
			return err
		}
		if err := tx.MarkPosted(txCtx, current.ID, 1, time.Now()); err != nil {
			return err
		}
		// Another connection caches the balance before the posting commits.
		before, err := l.balances.GetAccountBalance(ctx, q)
		if err != nil {
			return err
		}
		if !before.ClosingBalance.IsZero() {
			return fmt.Errorf("uncommitted posting visible: %s", before.ClosingBalance)
		}
		return tx.InvalidateBalances(txCtx, current.AccountIDs())
	})
	require.NoError(t, err)

	cached, err := l.balances.GetAccountBalance(ctx, q)
	require.NoError(t, err)
	fresh, err := l.balances.Recompute(ctx, q)
	require.NoError(t, err)
	require.True(t, fresh.ClosingBalance.Equal(d("250")), "recomputed %s", fresh.ClosingBalance)
	require.True(t, cached.ClosingBalance.Equal(fresh.ClosingBalance), "cached %s", cached.ClosingBalance)
}

func TestPostgresConcurrentPostReportsAlreadyPosted(t *testing.T) {
	l := newPGLedger(t)
	ctx := context.Background()
	entry := l.draft(t, "80")

	second := make(chan error, 1)
	err := l.repo.WithTx(ctx, func(txCtx context.Context, tx journals.TxRepository) error {
		current, err := tx.GetEntryForUpdate(txCtx, l.org, entry.ID)
		if err != nil {
			return err
		}
		go func() {
			_, err := l.journals.PostEntry(ctx, journals.PostInput{OrganizationID: l.org, EntryID: entry.ID, ActorID: 2})
			second <- err
		}()
		time.Sleep(200 * time.Millisecond)
		if err := tx.MarkPosted(txCtx, current.ID, 1, time.Now()); err != nil {
			return err
		}
		return tx.InvalidateBalances(txCtx, current.AccountIDs())
	})
	require.NoError(t, err)

	select {
	case err := <-second:
		require.ErrorIs(t, err, shared.ErrAlreadyPosted)
		require.ErrorIs(t, err, core.ErrConflict)
	case <-time.After(10 * time.Second):
		t.Fatal("second post did not finish")
	}
}
