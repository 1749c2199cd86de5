package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediascribe/internal/joblog"
	"mediascribe/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestJobLog(t *testing.T) *joblog.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.JobLogRow{}))
	return joblog.New(db)
}

type fakeRunner struct {
	mu  sync.Mutex
	ran []string
}

func (f *fakeRunner) Run(ctx context.Context, job models.JobDescriptor) (*models.JobResult, error) {
	f.mu.Lock()
	f.ran = append(f.ran, job.JobID)
	f.mu.Unlock()
	return &models.JobResult{JobID: job.JobID}, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (f *fakeBus) Publish(event models.ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBus) all() []models.ProgressEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ProgressEvent, len(f.events))
	copy(out, f.events)
	return out
}

func TestEnqueuePublishesQueuedEventAndRunnerProcessesJob(t *testing.T) {
	runner := &fakeRunner{}
	bus := &fakeBus{}
	q := New(runner, newTestJobLog(t), bus, 1)
	q.Start()
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), models.JobDescriptor{JobID: "j1", ClientID: "c1"}))

	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.ran) == 1
	}, time.Second, 10*time.Millisecond)

	events := bus.all()
	require.NotEmpty(t, events)
	require.Equal(t, models.StageQueued, events[0].StageCode)
	require.Equal(t, "j1", events[0].JobID)
}

func TestRecoveryScannerFailsOrphanedProcessingRows(t *testing.T) {
	jobLog := newTestJobLog(t)
	ctx := context.Background()
	require.NoError(t, jobLog.Insert(ctx, &models.JobLogRow{JobID: "orphan-1", Status: models.StatusProcessing, OriginalFilename: "a.mp3"}))

	bus := &fakeBus{}
	q := New(&fakeRunner{}, jobLog, bus, 1)
	q.failOrphanedProcessingRows()

	row, err := jobLog.Get(ctx, "orphan-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, row.Status)
	require.NotNil(t, row.ErrorMessage)

	events := bus.all()
	require.Len(t, events, 1)
	require.Equal(t, models.StageFailed, events[0].StageCode)
}

func TestEnqueueRejectsAfterStop(t *testing.T) {
	q := New(&fakeRunner{}, newTestJobLog(t), &fakeBus{}, 1)
	q.Start()
	q.Stop()

	err := q.Enqueue(context.Background(), models.JobDescriptor{JobID: "late"})
	require.Error(t, err)
}
