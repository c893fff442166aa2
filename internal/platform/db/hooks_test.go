package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

func TestAfterCommitOutsideTransactionRunsImmediately(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func(context.Context) { ran = true })
	if !ran {
		t.Fatal("expected hook to run immediately")
	}
}

func TestCommitHooksRunInOrderOnce(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())
	same, again := WithCommitHooks(ctx)
	if again != hooks || same != ctx {
		t.Fatal("expected nested WithCommitHooks to reuse the list")
	}

	var order []int
	AfterCommit(ctx, func(context.Context) { order = append(order, 1) })
	AfterCommit(ctx, func(context.Context) { order = append(order, 2) })
	if len(order) != 0 {
		t.Fatalf("hooks ran before commit: %v", order)
	}

	hooks.Run(ctx)
	hooks.Run(ctx)
	if fmt.Sprint(order) != "[1 2]" {
		t.Fatalf("unexpected order %v", order)
	}

	AfterCommit(ctx, func(context.Context) { order = append(order, 3) })
	if fmt.Sprint(order) != "[1 2 3]" {
		t.Fatalf("hook after commit should run immediately, got %v", order)
	}
}

func TestCommitHooksDiscardedOnRollback(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())
	ran := false
	AfterCommit(ctx, func(context.Context) { ran = true })
	hooks.Discard()
	hooks.Run(ctx)
	if ran {
		t.Fatal("discarded hook must not run")
	}
}

func TestHooksSurviveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx, hooks := WithCommitHooks(ctx)
	var hookErr error
	AfterCommit(ctx, func(ctx context.Context) { hookErr = ctx.Err() })
	cancel()
	hooks.Run(ctx)
	if hookErr != nil {
		t.Fatalf("hook context should not be cancelled, got %v", hookErr)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_org_code"})
	if !IsUniqueViolation(err, "") || !IsUniqueViolation(err, "uq_accounts_org_code") {
		t.Fatal("expected unique violation")
	}
	if IsUniqueViolation(err, "uq_source_links") {
		t.Fatal("constraint name must match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(fmt.Errorf("plain"), "") {
		t.Fatal("plain errors are not unique violations")
	}
}

func TestInTx(t *testing.T) {
	if InTx(context.Background()) {
		t.Fatal("background context carries no transaction")
	}
}

func TestSerializationFailuresBecomeConflicts(t *testing.T) {
	for _, code := range []string{"40001", "40P01"} {
		cause := &pgconn.PgError{Code: code}
		err := classifyTxError(fmt.Errorf("update payment: %w", cause))
		if !errors.Is(err, shared.ErrConflict) {
			t.Fatalf("%s: expected conflict, got %v", code, err)
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != code {
			t.Fatalf("%s: cause must stay reachable, got %v", code, err)
		}
	}

	plain := errors.New("boom")
	if got := classifyTxError(plain); got != plain {
		t.Fatalf("unrelated errors pass through, got %v", got)
	}
	unique := &pgconn.PgError{Code: "23505"}
	if errors.Is(classifyTxError(unique), shared.ErrConflict) {
		t.Fatal("unique violations are left to repositories")
	}
}
