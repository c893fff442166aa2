package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalancesWarmup recomputes materialized balances for a period.
	TaskBalancesWarmup = "ledger:balances:warmup"
	// TaskGLIntegrity scans posted entries for imbalances.
	TaskGLIntegrity = "ledger:gl:integrity"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "ledger:idempotency:cleanup"
)

// BalancesWarmupPayload selects the organization and period to warm. A zero
// organization covers every organization with a chart; an empty period means
// the current month.
type BalancesWarmupPayload struct {
	OrganizationID int64  `json:"organization_id"`
	Period         string `json:"period,omitempty"`
}

// GLIntegrityPayload scopes the integrity scan. Zero scans every organization.
type GLIntegrityPayload struct {
	OrganizationID int64 `json:"organization_id"`
}

// IdempotencyCleanupPayload overrides the retention window when set.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention,omitempty"`
}

// NewBalancesWarmupTask constructs a balances warmup task.
func NewBalancesWarmupTask(organizationID int64, period string) (*asynq.Task, error) {
	return newTask(TaskBalancesWarmup, BalancesWarmupPayload{OrganizationID: organizationID, Period: period})
}

// NewGLIntegrityTask constructs an integrity scan task.
func NewGLIntegrityTask(organizationID int64) (*asynq.Task, error) {
	return newTask(TaskGLIntegrity, GLIntegrityPayload{OrganizationID: organizationID})
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{Retention: retention})
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault)), nil
}
