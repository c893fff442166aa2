package journals_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/reports"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

const org int64 = 1

var june = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func transfer(debitCode, creditCode, amount string) journals.CreateEntryInput {
	return journals.CreateEntryInput{
		OrganizationID: org,
		Date:           june,
		Description:    "test",
		Type:           journals.EntryTypePayment,
		CreatedBy:      7,
		Lines: []journals.LineInput{
			{AccountCode: debitCode, Debit: d(amount)},
			{AccountCode: creditCode, Credit: d(amount)},
		},
	}
}

func reportsFilter(from, to time.Time) reports.Filter {
	return reports.Filter{OrganizationID: org, From: from, To: to}
}

func closing(t *testing.T, h *ledgertest.Harness, code string, month periods.Month) decimal.Decimal {
	t.Helper()
	acc, err := h.Accounts.Lookup(context.Background(), org, code)
	require.NoError(t, err)
	bal, err := h.Balances.GetAccountBalance(context.Background(), balances.Query{OrganizationID: org, AccountID: acc.ID, Period: month})
	require.NoError(t, err)
	return bal.ClosingBalance
}

func TestCreateEntryRejectsUnbalanced(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	in := transfer("51", "62", "1000")
	in.Lines[1].Credit = d("999.98")

	_, err := h.Journals.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.ErrorIs(t, err, core.ErrValidation)
	var unbalanced *shared.UnbalancedEntryError
	require.True(t, errors.As(err, &unbalanced))
	require.True(t, unbalanced.Debit.Equal(d("1000")))
	require.True(t, unbalanced.Credit.Equal(d("999.98")))
	require.Zero(t, h.Store.EntryCount())
}

func TestCreateEntryAcceptsDifferenceWithinEpsilon(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	in := transfer("51", "62", "1000")
	in.Lines[1].Credit = d("999.99")

	entry, err := h.Journals.CreateEntry(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, journals.EntryStatusDraft, entry.Status)
	require.Equal(t, "JE-20240610-0001", entry.EntryNumber)
}

func TestCreateEntryRejectsMalformedInput(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	empty := transfer("51", "62", "1")
	empty.Lines = nil
	_, err := h.Journals.CreateEntry(ctx, empty)
	require.ErrorIs(t, err, shared.ErrEmptyOrZeroEntry)

	zero := transfer("51", "62", "0")
	_, err = h.Journals.CreateEntry(ctx, zero)
	require.ErrorIs(t, err, shared.ErrEmptyOrZeroEntry)

	negative := transfer("51", "62", "10")
	negative.Lines[0].Debit = d("-10")
	negative.Lines[1].Credit = d("-10")
	_, err = h.Journals.CreateEntry(ctx, negative)
	require.ErrorIs(t, err, shared.ErrNegativeAmount)

	badType := transfer("51", "62", "10")
	badType.Type = "gift"
	_, err = h.Journals.CreateEntry(ctx, badType)
	require.ErrorIs(t, err, shared.ErrInvalidEntryType)

	subCent := transfer("51", "62", "0.004")
	_, err = h.Journals.CreateEntry(ctx, subCent)
	require.ErrorIs(t, err, shared.ErrSubCentAmount)
	require.ErrorIs(t, err, core.ErrValidation)

	subCentTax := transfer("51", "62", "10")
	tax := d("1.005")
	subCentTax.Lines[0].TaxAmount = &tax
	_, err = h.Journals.CreateEntry(ctx, subCentTax)
	require.ErrorIs(t, err, shared.ErrSubCentAmount)

	unknown := transfer("51", "99", "10")
	_, err = h.Journals.CreateEntry(ctx, unknown)
	require.True(t, shared.IsAccountNotFound(err))
	require.ErrorIs(t, err, core.ErrNotFound)

	require.Zero(t, h.Store.EntryCount())
}

func TestRandomEntriesKeepLedgerBalanced(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	codes := []string{"10", "20", "26", "51", "60", "62", "80", "90"}

	posted := 0
	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(4)
		lines := make([]journals.LineInput, n)
		total := decimal.Zero
		for j := 0; j < n-1; j++ {
			amount := decimal.New(int64(1+rng.Intn(100000)), -2)
			lines[j] = journals.LineInput{AccountCode: codes[rng.Intn(len(codes))], Debit: amount}
			total = total.Add(amount)
		}
		unbalanced := rng.Intn(3) == 0
		credit := total
		if unbalanced {
			credit = credit.Add(decimal.New(int64(2+rng.Intn(500)), -2))
		}
		lines[n-1] = journals.LineInput{AccountCode: codes[rng.Intn(len(codes))], Credit: credit}

		_, err := h.Journals.CreateAndPost(ctx, journals.CreateEntryInput{
			OrganizationID: org,
			Date:           june.AddDate(0, 0, rng.Intn(15)),
			Type:           journals.EntryTypeAdjustment,
			CreatedBy:      1,
			Lines:          lines,
		})
		if unbalanced {
			require.ErrorIs(t, err, shared.ErrUnbalanced, "iteration %d", i)
			continue
		}
		require.NoError(t, err, "iteration %d", i)
		posted++
	}
	require.Equal(t, posted, h.Store.EntryCount())

	issues, err := h.Journals.CheckIntegrity(ctx, org)
	require.NoError(t, err)
	require.Empty(t, issues)

	from := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	tb, err := h.Reports.TrialBalance(ctx, reportsFilter(from, to))
	require.NoError(t, err)
	require.True(t, tb.IsBalanced)
	require.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
}

func TestEntryLifecycle(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	month := periods.MonthOf(june)

	draft, err := h.Journals.CreateEntry(ctx, transfer("51", "62", "1000"))
	require.NoError(t, err)
	require.True(t, closing(t, h, "51", month).IsZero(), "drafts never affect balances")

	posted, err := h.Journals.PostEntry(ctx, journals.PostInput{OrganizationID: org, EntryID: draft.ID, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, journals.EntryStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
	require.Equal(t, int64(9), *posted.ApprovedBy)
	require.True(t, closing(t, h, "51", month).Equal(d("1000")))
	require.True(t, closing(t, h, "62", month).Equal(d("-1000")))

	_, err = h.Journals.PostEntry(ctx, journals.PostInput{OrganizationID: org, EntryID: draft.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrAlreadyPosted)
	require.ErrorIs(t, err, core.ErrConflict)

	cancelled, err := h.Journals.CancelEntry(ctx, journals.CancelInput{OrganizationID: org, EntryID: draft.ID, ActorID: 9, Reason: "typo"})
	require.NoError(t, err)
	require.Equal(t, journals.EntryStatusCancelled, cancelled.Status)
	require.True(t, closing(t, h, "51", month).IsZero())
	require.True(t, closing(t, h, "62", month).IsZero())

	_, err = h.Journals.CancelEntry(ctx, journals.CancelInput{OrganizationID: org, EntryID: draft.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrAlreadyCancelled)
	_, err = h.Journals.PostEntry(ctx, journals.PostInput{OrganizationID: org, EntryID: draft.ID, ActorID: 9})
	require.ErrorIs(t, err, shared.ErrAlreadyCancelled)

	require.Equal(t, []string{"journal.create", "journal.post", "journal.cancel"}, h.Audit.Actions())
}

func TestCancelDraftSkipsInvalidation(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	draft, err := h.Journals.CreateEntry(ctx, transfer("51", "62", "10"))
	require.NoError(t, err)
	_, err = h.Journals.CancelEntry(ctx, journals.CancelInput{OrganizationID: org, EntryID: draft.ID, ActorID: 1})
	require.NoError(t, err)
	require.Zero(t, h.Store.InvalidationCount)
}

func TestPostEntryUnknownEntry(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	_, err := h.Journals.PostEntry(context.Background(), journals.PostInput{OrganizationID: org, EntryID: 404, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.Journals.PostEntry(context.Background(), journals.PostInput{OrganizationID: org, ActorID: 1})
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestLockedPeriodRejectsPostingAndCancel(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	month := periods.MonthOf(june)

	posted, err := h.Journals.CreateAndPost(ctx, transfer("51", "62", "100"))
	require.NoError(t, err)

	_, err = h.Periods.SetStatus(ctx, org, month, periods.PeriodStatusClosed, 1, false)
	require.NoError(t, err)
	_, err = h.Journals.CreateAndPost(ctx, transfer("51", "62", "50"))
	require.NoError(t, err, "closed periods still accept postings")

	_, err = h.Periods.SetStatus(ctx, org, month, periods.PeriodStatusLocked, 1, false)
	require.NoError(t, err)
	_, err = h.Journals.CreateAndPost(ctx, transfer("51", "62", "25"))
	require.ErrorIs(t, err, shared.ErrPeriodLocked)
	_, err = h.Journals.CancelEntry(ctx, journals.CancelInput{OrganizationID: org, EntryID: posted.ID, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrPeriodLocked)
	require.Equal(t, 2, h.Store.EntryCount())

	_, err = h.Periods.SetStatus(ctx, org, month, periods.PeriodStatusOpen, 1, false)
	require.ErrorIs(t, err, shared.ErrInvalidPeriodTransition)
	_, err = h.Periods.SetStatus(ctx, org, month, periods.PeriodStatusOpen, 1, true)
	require.NoError(t, err)
	_, err = h.Journals.CreateAndPost(ctx, transfer("51", "62", "25"))
	require.NoError(t, err)
}

func TestCreateAndPostIsIdempotentPerSource(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	ref := journals.NewSourceRef("PAYMENT", 15)
	in := transfer("51", "62", "300")
	in.Source = &ref

	first, err := h.Journals.CreateAndPost(ctx, in)
	require.NoError(t, err)
	second, err := h.Journals.CreateAndPost(ctx, in)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.True(t, journals.IsDuplicate(err))
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, h.Store.EntryCount())
	require.True(t, closing(t, h, "51", periods.MonthOf(june)).Equal(d("300")))

	_, err = h.Journals.CreateEntry(ctx, in)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
}

func TestReverseEntry(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	month := periods.MonthOf(june)

	original, err := h.Journals.CreateAndPost(ctx, transfer("26", "60", "450.50"))
	require.NoError(t, err)

	reversal, err := h.Journals.ReverseEntry(ctx, journals.ReverseInput{OrganizationID: org, EntryID: original.ID, ActorID: 2, Date: &june})
	require.NoError(t, err)
	require.Equal(t, journals.EntryTypeAdjustment, reversal.Type)
	require.Equal(t, "Reversal of "+original.EntryNumber, reversal.Description)
	require.True(t, closing(t, h, "26", month).IsZero())
	require.True(t, closing(t, h, "60", month).IsZero())

	again, err := h.Journals.ReverseEntry(ctx, journals.ReverseInput{OrganizationID: org, EntryID: original.ID, ActorID: 2, Date: &june})
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.Equal(t, reversal.ID, again.ID)

	draft, err := h.Journals.CreateEntry(ctx, transfer("26", "60", "1"))
	require.NoError(t, err)
	_, err = h.Journals.ReverseEntry(ctx, journals.ReverseInput{OrganizationID: org, EntryID: draft.ID, ActorID: 2})
	require.ErrorIs(t, err, shared.ErrNotPosted)
}

func TestCheckIntegrityFindsCorruptedEntry(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	entry, err := h.Journals.CreateAndPost(ctx, transfer("51", "90", "100"))
	require.NoError(t, err)
	h.Store.CorruptEntry(entry.ID, d("90"))

	issues, err := h.Journals.CheckIntegrity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, entry.ID, issues[0].EntryID)
	require.True(t, issues[0].Debit.Equal(d("90")))
}

func TestListEntriesFilters(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	project := int64(5)

	in := transfer("51", "62", "10")
	in.ProjectID = &project
	_, err := h.Journals.CreateAndPost(ctx, in)
	require.NoError(t, err)
	_, err = h.Journals.CreateEntry(ctx, transfer("51", "62", "20"))
	require.NoError(t, err)

	all, err := h.Journals.ListEntries(ctx, journals.ListFilter{OrganizationID: org})
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := h.Journals.ListEntries(ctx, journals.ListFilter{OrganizationID: org, ProjectID: &project})
	require.NoError(t, err)
	require.Len(t, scoped, 1)

	drafts, err := h.Journals.ListEntries(ctx, journals.ListFilter{OrganizationID: org, Status: journals.EntryStatusDraft})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	full, err := h.Journals.GetEntry(ctx, org, scoped[0].ID)
	require.NoError(t, err)
	require.Len(t, full.Lines, 2)
	require.Equal(t, accounts.CodeBank, full.Lines[0].AccountCode)
}
