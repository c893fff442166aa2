package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nekorytaylor666/stroika-sub000/internal/jobs"
)

// KeyPurger deletes idempotency keys older than a retention window.
type KeyPurger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges request keys past their retention.
type IdempotencyCleanupJob struct {
	base
	Store     KeyPurger
	Retention time.Duration
}

// NewIdempotencyCleanupJob wires the cleanup handler.
func NewIdempotencyCleanupJob(store KeyPurger, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{
		base:      base{Logger: logger, Metrics: metrics},
		Store:     store,
		Retention: retention,
	}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	retention := j.Retention
	if payload.Retention > 0 {
		retention = payload.Retention
	}
	if retention <= 0 {
		return fmt.Errorf("idempotency cleanup: retention must be positive: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskIdempotencyCleanup)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := j.logger(TaskIdempotencyCleanup)
	deleted, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		logger.Error("purge idempotency keys", slog.Any("error", err))
		return err
	}
	j.metrics().AddProcessed(TaskIdempotencyCleanup, deleted)
	logger.Info("purged idempotency keys", slog.Int64("deleted", deleted), slog.Duration("retention", retention))
	return nil
}
