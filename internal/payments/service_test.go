package payments_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/balances"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/periods"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	"github.com/nekorytaylor666/stroika-sub000/internal/payments"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

const org int64 = 1

var paidOn = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func create(t *testing.T, h *ledgertest.Harness, dir payments.Direction, amount string) payments.Payment {
	t.Helper()
	project := int64(3)
	p, err := h.Payments.CreatePayment(context.Background(), payments.CreateInput{
		OrganizationID: org,
		ProjectID:      &project,
		Amount:         d(amount),
		Direction:      dir,
		Type:           "advance",
		Counterparty:   "Acme Build",
		PaymentDate:    paidOn,
		CreatedBy:      4,
	})
	require.NoError(t, err)
	return p
}

func balanceOf(t *testing.T, h *ledgertest.Harness, code string) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	acc, err := h.Accounts.Lookup(ctx, org, code)
	require.NoError(t, err)
	bal, err := h.Balances.GetAccountBalance(ctx, balances.Query{OrganizationID: org, AccountID: acc.ID, Period: periods.MonthOf(paidOn)})
	require.NoError(t, err)
	return bal.ClosingBalance
}

func TestCreatePaymentValidation(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	base := payments.CreateInput{OrganizationID: org, Amount: d("10"), Direction: payments.DirectionIncoming, PaymentDate: paidOn}

	zero := base
	zero.Amount = decimal.Zero
	_, err := h.Payments.CreatePayment(ctx, zero)
	require.ErrorIs(t, err, core.ErrValidation)

	fractional := base
	fractional.Amount = d("10.005")
	_, err = h.Payments.CreatePayment(ctx, fractional)
	require.ErrorIs(t, err, core.ErrValidation)

	sideways := base
	sideways.Direction = "sideways"
	_, err = h.Payments.CreatePayment(ctx, sideways)
	require.ErrorIs(t, err, payments.ErrInvalidDirection)

	upper := base
	upper.Direction = "INCOMING"
	p, err := h.Payments.CreatePayment(ctx, upper)
	require.NoError(t, err)
	require.Equal(t, payments.DirectionIncoming, p.Direction)
	require.Equal(t, payments.StatusPending, p.Status)
	require.Equal(t, "PAY-20240610-0001", p.Number)
	require.Zero(t, h.Store.EntryCount(), "pending payments post nothing")
}

func TestConfirmIncomingPayment(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	p := create(t, h, payments.DirectionIncoming, "1000")

	confirmed, err := h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 8})
	require.NoError(t, err)
	require.Equal(t, payments.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.RelatedJournalEntryID)
	require.Equal(t, int64(8), *confirmed.ConfirmedBy)

	entry, err := h.Journals.GetEntry(ctx, org, *confirmed.RelatedJournalEntryID)
	require.NoError(t, err)
	require.Equal(t, journals.EntryStatusPosted, entry.Status)
	require.Equal(t, journals.EntryTypePayment, entry.Type)
	require.Equal(t, p.ID, *entry.RelatedPaymentID)
	require.Equal(t, p.ProjectID, entry.ProjectID)
	require.True(t, entry.Date.Equal(paidOn))
	require.Len(t, entry.Lines, 2)
	require.Equal(t, "51", entry.Lines[0].AccountCode)
	require.True(t, entry.Lines[0].Debit.Equal(d("1000")))
	require.Equal(t, "62", entry.Lines[1].AccountCode)
	require.True(t, entry.Lines[1].Credit.Equal(d("1000")))

	require.True(t, balanceOf(t, h, "51").Equal(d("1000")))
	require.True(t, balanceOf(t, h, "62").Equal(d("-1000")))
	require.Contains(t, h.Audit.Actions(), "payment.confirm")
}

func TestConfirmOutgoingPayment(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	p := create(t, h, payments.DirectionOutgoing, "250.40")

	confirmed, err := h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 8})
	require.NoError(t, err)
	entry, err := h.Journals.GetEntry(ctx, org, *confirmed.RelatedJournalEntryID)
	require.NoError(t, err)
	require.Equal(t, "60", entry.Lines[0].AccountCode)
	require.Equal(t, "51", entry.Lines[1].AccountCode)
	require.True(t, balanceOf(t, h, "51").Equal(d("-250.40")))
	require.True(t, balanceOf(t, h, "60").Equal(d("-250.40")))
}

func TestConfirmTwiceIsRejected(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	p := create(t, h, payments.DirectionIncoming, "1000")

	_, err := h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.NoError(t, err)
	_, err = h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.ErrorIs(t, err, payments.ErrAlreadyConfirmed)
	require.ErrorIs(t, err, core.ErrConflict)
	require.Equal(t, 1, h.Store.EntryCount())
	require.True(t, balanceOf(t, h, "51").Equal(d("1000")))
}

func TestConfirmWithoutChart(t *testing.T) {
	h := ledgertest.New(t)
	ctx := context.Background()
	p := create(t, h, payments.DirectionIncoming, "1000")

	_, err := h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrChartNotInitialized)
	require.ErrorIs(t, err, core.ErrPrecondition)

	stored, err := h.Payments.GetPayment(ctx, org, p.ID)
	require.NoError(t, err)
	require.Equal(t, payments.StatusPending, stored.Status)
	require.Nil(t, stored.RelatedJournalEntryID)
	require.Zero(t, h.Store.EntryCount())
}

func TestConfirmRollsBackInLockedPeriod(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	p := create(t, h, payments.DirectionIncoming, "1000")
	_, err := h.Periods.SetStatus(ctx, org, periods.MonthOf(paidOn), periods.PeriodStatusLocked, 1, false)
	require.NoError(t, err)

	_, err = h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrPeriodLocked)

	stored, err := h.Payments.GetPayment(ctx, org, p.ID)
	require.NoError(t, err)
	require.Equal(t, payments.StatusPending, stored.Status)
	require.Zero(t, h.Store.EntryCount())
	require.NotContains(t, h.Audit.Actions(), "payment.confirm")
}

func TestCustomBankMapping(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()
	require.NoError(t, h.Mappings.Set(ctx, org, mappings.ModulePayment, mappings.KeyBank, "50"))
	p := create(t, h, payments.DirectionIncoming, "75")

	_, err := h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.NoError(t, err)
	require.True(t, balanceOf(t, h, "50").Equal(d("75")))
	require.True(t, balanceOf(t, h, "51").IsZero())
}

func TestCancelPayment(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	pending := create(t, h, payments.DirectionIncoming, "20")
	cancelled, err := h.Payments.CancelPayment(ctx, payments.CancelInput{OrganizationID: org, PaymentID: pending.ID, ActorID: 1})
	require.NoError(t, err)
	require.Equal(t, payments.StatusCancelled, cancelled.Status)
	_, err = h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: pending.ID, ActorID: 1})
	require.ErrorIs(t, err, payments.ErrPaymentCancelled)
	require.ErrorIs(t, err, core.ErrConflict)

	p := create(t, h, payments.DirectionIncoming, "1000")
	confirmed, err := h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.NoError(t, err)
	_, err = h.Payments.CancelPayment(ctx, payments.CancelInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1, Reason: "bounced"})
	require.NoError(t, err)

	entry, err := h.Journals.GetEntry(ctx, org, *confirmed.RelatedJournalEntryID)
	require.NoError(t, err)
	require.Equal(t, journals.EntryStatusCancelled, entry.Status)
	require.True(t, balanceOf(t, h, "51").IsZero())
	require.True(t, balanceOf(t, h, "62").IsZero())

	_, err = h.Payments.CancelPayment(ctx, payments.CancelInput{OrganizationID: org, PaymentID: p.ID, ActorID: 1})
	require.ErrorIs(t, err, payments.ErrPaymentCancelled)
}

func TestPaymentLookupAndTotals(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	_, err := h.Payments.GetPayment(ctx, org, 99)
	require.ErrorIs(t, err, payments.ErrPaymentNotFound)
	require.ErrorIs(t, err, core.ErrNotFound)

	in := create(t, h, payments.DirectionIncoming, "1000")
	_, err = h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: in.ID, ActorID: 1})
	require.NoError(t, err)
	create(t, h, payments.DirectionIncoming, "300")
	out := create(t, h, payments.DirectionOutgoing, "400")
	_, err = h.Payments.ConfirmPayment(ctx, payments.ConfirmInput{OrganizationID: org, PaymentID: out.ID, ActorID: 1})
	require.NoError(t, err)

	totals, err := h.Payments.Totals(ctx, org, nil)
	require.NoError(t, err)
	require.True(t, totals.ConfirmedIncoming.Equal(d("1000")))
	require.True(t, totals.ConfirmedOutgoing.Equal(d("400")))
	require.True(t, totals.PendingIncoming.Equal(d("300")))
	require.True(t, totals.PendingOutgoing.IsZero())

	other := int64(99)
	empty, err := h.Payments.Totals(ctx, org, &other)
	require.NoError(t, err)
	require.True(t, empty.ConfirmedIncoming.IsZero())

	confirmed, err := h.Payments.ListPayments(ctx, payments.ListFilter{OrganizationID: org, Status: payments.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 2)
}
