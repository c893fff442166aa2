package shared

import (
	"context"
	"testing"
	"time"
)

func TestFormatDocumentNumber(t *testing.T) {
	day := time.Date(2024, time.March, 7, 23, 59, 0, 0, time.UTC)
	if got := FormatDocumentNumber("JE", day, 12); got != "JE-20240307-0012" {
		t.Fatalf("unexpected number %s", got)
	}
	if got := FormatDocumentNumber("PAY", day, 12345); got != "PAY-20240307-12345" {
		t.Fatalf("unexpected number %s", got)
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("expected no actor")
	}
	ctx := ContextWithActor(context.Background(), Actor{OrganizationID: 3, UserID: 8})
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.OrganizationID != 3 || actor.UserID != 8 {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestAuditLoggerRejectsIncompleteRecords(t *testing.T) {
	var nilLogger *AuditLogger
	if err := nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "e", EntityID: "1"}); err == nil {
		t.Fatal("expected error from nil logger")
	}
	logger := NewAuditLogger(nil)
	if err := logger.Record(context.Background(), AuditLog{Action: "journal.post"}); err == nil {
		t.Fatal("expected error for missing entity")
	}
}

func TestIdempotencyStoreGuards(t *testing.T) {
	var store *IdempotencyStore
	if err := store.CheckAndInsert(context.Background(), 1, "k", "payments"); err == nil {
		t.Fatal("expected error from nil store")
	}
	if n, err := store.Cleanup(context.Background(), time.Hour); err != nil || n != 0 {
		t.Fatalf("nil store cleanup should be a no-op, got %d %v", n, err)
	}
	live := NewIdempotencyStore(nil)
	if err := live.CheckAndInsert(context.Background(), 1, "", "payments"); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := live.CheckAndInsert(context.Background(), 1, "k", ""); err == nil {
		t.Fatal("expected error for empty module")
	}
}
