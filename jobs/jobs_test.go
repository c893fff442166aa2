package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/accounts"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/journals"
	"github.com/nekorytaylor666/stroika-sub000/internal/accounting/ledgertest"
	jobmetrics "github.com/nekorytaylor666/stroika-sub000/internal/jobs"
	"github.com/nekorytaylor666/stroika-sub000/jobs"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freshMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func postTransfer(t *testing.T, h *ledgertest.Harness, org int64, amount string) journals.JournalEntry {
	t.Helper()
	entry, err := h.Journals.CreateAndPost(context.Background(), journals.CreateEntryInput{
		OrganizationID: org,
		Date:           time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Description:    "owner contribution",
		Type:           journals.EntryTypeAdjustment,
		CreatedBy:      1,
		Lines: []journals.LineInput{
			{AccountCode: "51", Debit: decimal.RequireFromString(amount)},
			{AccountCode: "80", Credit: decimal.RequireFromString(amount)},
		},
	})
	require.NoError(t, err)
	return entry
}

func TestBalancesWarmupCoversEveryOrganization(t *testing.T) {
	h := ledgertest.Seeded(t, 1, 2)
	postTransfer(t, h, 1, "500")

	job := jobs.NewBalancesWarmupJob(h.Balances, h.Accounts, quietLogger(), freshMetrics())
	task, err := jobs.NewBalancesWarmupTask(0, "2024-06")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 2*len(accounts.StandardChart), h.Store.CachedBalanceRows())
}

func TestBalancesWarmupDefaultsToCurrentMonth(t *testing.T) {
	h := ledgertest.Seeded(t, 1)
	job := jobs.NewBalancesWarmupJob(h.Balances, h.Accounts, quietLogger(), freshMetrics())
	job.WithClock(func() time.Time { return ledgertest.Now })

	task, err := jobs.NewBalancesWarmupTask(1, "")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, len(accounts.StandardChart), h.Store.CachedBalanceRows())
}

func TestBalancesWarmupRejectsBadPeriod(t *testing.T) {
	h := ledgertest.Seeded(t, 1)
	job := jobs.NewBalancesWarmupJob(h.Balances, h.Accounts, quietLogger(), freshMetrics())

	task, err := jobs.NewBalancesWarmupTask(1, "June")
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, h.Store.CachedBalanceRows())

	err = job.Handle(context.Background(), asynq.NewTask(jobs.TaskBalancesWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestGLIntegrityJob(t *testing.T) {
	h := ledgertest.Seeded(t, 1)
	entry := postTransfer(t, h, 1, "100")
	job := jobs.NewGLIntegrityJob(h.Journals, h.Accounts, quietLogger(), freshMetrics())

	task, err := jobs.NewGLIntegrityTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	h.Store.CorruptEntry(entry.ID, decimal.RequireFromString("90"))
	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, jobs.ErrUnbalancedLedger)
	require.ErrorIs(t, err, asynq.SkipRetry)

	issues, err := jobs.RunGLIntegrityCheck(context.Background(), h.Journals, 1, quietLogger())
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Equal(t, entry.EntryNumber, issues[0].EntryNumber)
}

type fakePurger struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakePurger) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.retention = olderThan
	return f.deleted, f.err
}

func TestIdempotencyCleanupJob(t *testing.T) {
	purger := &fakePurger{deleted: 4}
	job := jobs.NewIdempotencyCleanupJob(purger, 168*time.Hour, quietLogger(), freshMetrics())

	task, err := jobs.NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 168*time.Hour, purger.retention)

	task, err = jobs.NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, time.Hour, purger.retention)

	purger.err = errors.New("db down")
	require.Error(t, job.Handle(context.Background(), task))

	empty := jobs.NewIdempotencyCleanupJob(purger, 0, quietLogger(), freshMetrics())
	err = empty.Handle(context.Background(), asynq.NewTask(jobs.TaskIdempotencyCleanup, nil))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, task *asynq.Task) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func jobsRouter(h *jobs.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestJobsHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	jobsRouter(jobs.NewHandler(nil, nil, quietLogger())).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	inspector := fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Active: 1}}
	jobsRouter(jobs.NewHandler(inspector, nil, quietLogger())).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"pending":3`)

	rr = httptest.NewRecorder()
	broken := fakeInspector{err: errors.New("redis down")}
	jobsRouter(jobs.NewHandler(broken, nil, quietLogger())).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestTriggerJob(t *testing.T) {
	enq := &fakeEnqueuer{}
	router := jobsRouter(jobs.NewHandler(nil, enq, quietLogger()))

	send := func(path, body string, withActor bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if withActor {
			req.Header.Set("X-Organization-ID", "1")
			req.Header.Set("X-User-ID", "9")
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusUnauthorized, send("/jobs/gl-integrity", "", false).Code)

	rr := send("/jobs/balances-warmup", `{"organization_id":1,"period":"2024-06"}`, true)
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, enq.tasks, 1)
	require.Equal(t, jobs.TaskBalancesWarmup, enq.tasks[0].Type())
	var payload jobs.BalancesWarmupPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	require.Equal(t, jobs.BalancesWarmupPayload{OrganizationID: 1, Period: "2024-06"}, payload)

	require.Equal(t, http.StatusAccepted, send("/jobs/idempotency-cleanup", "", true).Code)
	require.Equal(t, http.StatusNotFound, send("/jobs/reindex", "", true).Code)
	require.Equal(t, http.StatusBadRequest, send("/jobs/balances-warmup", `{"period":"06-2024"}`, true).Code)
	require.Len(t, enq.tasks, 2)
}
