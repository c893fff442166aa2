package accounts_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/mappings"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/shared"
	core "github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

const org int64 = 1

func TestSeedStandardChartIsIdempotent(t *testing.T) {
	h := ledgertest.New(t)
	ctx := context.Background()

	inserted, err := h.Accounts.SeedStandardChart(ctx, org)
	require.NoError(t, err)
	require.Equal(t, len(accounts.StandardChart), inserted)

	again, err := h.Accounts.SeedStandardChart(ctx, org)
	require.NoError(t, err)
	require.Zero(t, again)

	list, err := h.Accounts.List(ctx, accounts.ListFilter{OrganizationID: org})
	require.NoError(t, err)
	require.Len(t, list, len(accounts.StandardChart))
	require.Equal(t, "01", list[0].Code)

	bank, err := h.Accounts.Lookup(ctx, org, accounts.CodeBank)
	require.NoError(t, err)
	require.Equal(t, accounts.AccountTypeAsset, bank.Type)
	require.True(t, accounts.IsCash(bank.Category))

	stored, err := h.Mappings.List(ctx, org)
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	code, err := h.Mappings.Resolve(ctx, org, mappings.ModuleExpense, "Materials")
	require.NoError(t, err)
	require.Equal(t, "20", code)

	_, err = h.Accounts.SeedStandardChart(ctx, 0)
	require.Error(t, err)
}

func TestCreateAccount(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	sub, err := h.Accounts.Create(ctx, accounts.CreateInput{
		OrganizationID: org, Code: "51.01", Name: "Project escrow", Type: accounts.AccountTypeAsset,
		Category: accounts.CategoryBank, ParentCode: "51",
	})
	require.NoError(t, err)
	require.NotNil(t, sub.ParentID)
	require.True(t, sub.IsActive)

	_, err = h.Accounts.Create(ctx, accounts.CreateInput{OrganizationID: org, Code: "51.01", Name: "Again", Type: accounts.AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrDuplicateAccount)
	require.ErrorIs(t, err, core.ErrConflict)

	_, err = h.Accounts.Create(ctx, accounts.CreateInput{OrganizationID: org, Code: "5A", Name: "Bad", Type: accounts.AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrMalformedAccountCode)

	_, err = h.Accounts.Create(ctx, accounts.CreateInput{OrganizationID: org, Code: "52", Name: "Bad type", Type: "cash"})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = h.Accounts.Create(ctx, accounts.CreateInput{OrganizationID: org, Code: "53", Name: "Orphan", Type: accounts.AccountTypeAsset, ParentCode: "59"})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRequireReportsMissingChart(t *testing.T) {
	h := ledgertest.New(t)
	_, err := h.Accounts.Require(context.Background(), org, "51", "62")
	require.ErrorIs(t, err, shared.ErrChartNotInitialized)
	require.ErrorIs(t, err, core.ErrPrecondition)
	require.Contains(t, err.Error(), "seed the chart of accounts first")
}

func TestDeactivateHidesAccount(t *testing.T) {
	h := ledgertest.Seeded(t, org)
	ctx := context.Background()

	acc, err := h.Accounts.Deactivate(ctx, org, "44")
	require.NoError(t, err)
	require.False(t, acc.IsActive)

	active, err := h.Accounts.List(ctx, accounts.ListFilter{OrganizationID: org})
	require.NoError(t, err)
	require.Len(t, active, len(accounts.StandardChart)-1)

	all, err := h.Accounts.List(ctx, accounts.ListFilter{OrganizationID: org, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, all, len(accounts.StandardChart))

	expenses, err := h.Accounts.List(ctx, accounts.ListFilter{OrganizationID: org, Type: accounts.AccountTypeExpense, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, expenses, 3)

	_, err = h.Accounts.Deactivate(ctx, org, "45")
	require.True(t, shared.IsAccountNotFound(err))
}

func TestSignedBalances(t *testing.T) {
	debit, credit := decimalPair("100", "30")
	if got := accounts.AccountTypeAsset.Signed(debit, credit); got.String() != "70" {
		t.Fatalf("asset: got %s", got)
	}
	if got := accounts.AccountTypeLiability.Signed(debit, credit); got.String() != "-70" {
		t.Fatalf("liability: got %s", got)
	}
	if !accounts.AccountTypeExpense.DebitNormal() || accounts.AccountTypeRevenue.DebitNormal() {
		t.Fatalf("unexpected normal sides")
	}
}

func decimalPair(a, b string) (decimal.Decimal, decimal.Decimal) {
	return decimal.RequireFromString(a), decimal.RequireFromString(b)
}
