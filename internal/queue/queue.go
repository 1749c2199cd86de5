// Package queue implements the Job Queue component (spec §4.2): a bounded
// in-process buffer between admission (Intake/Gateway) and the Worker pool
// that drains it, plus the auto-scaling worker pool and crash-recovery
// rescan the reference deployment runs alongside it.
//
// Grounded on the teacher's internal/queue/queue.go: the worker-pool /
// jobScanner / autoScaler shape is kept almost unchanged, generalized from
// a jobID-lookup-through-the-database model to carrying the full
// JobDescriptor in the channel, since spec §4.2 hands the Job Queue a
// complete descriptor rather than a row key to re-fetch.
package queue

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"mediascribe/internal/joblog"
	"mediascribe/internal/models"
	"mediascribe/pkg/logger"
)

// JobRunner is the Worker pipeline's entrypoint as the Job Queue needs it.
type JobRunner interface {
	Run(ctx context.Context, job models.JobDescriptor) (*models.JobResult, error)
}

// EventPublisher is the Event Bus's publication surface as the Job Queue
// needs it, to announce StageQueued immediately on admission (spec §8
// scenario 1: "one QUEUED, one PROCESSING event stream ending with
// COMPLETED").
type EventPublisher interface {
	Publish(event models.ProgressEvent)
}

// Queue is the Job Queue: a buffered channel of JobDescriptors drained by a
// pool of workers that each run the full pipeline for one job at a time.
type Queue struct {
	minWorkers     int
	maxWorkers     int
	currentWorkers int64 // atomic

	jobChannel chan models.JobDescriptor
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	runner JobRunner
	jobLog *joblog.Store
	bus    EventPublisher

	autoScale     bool
	scaleMutex    sync.Mutex
	lastScaleTime time.Time
}

// optimalWorkerCount mirrors the teacher's CPU-count heuristic, with the
// same QUEUE_WORKERS environment override for a fixed pool size.
func optimalWorkerCount() (min, max int) {
	if raw := os.Getenv("QUEUE_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n, n
		}
	}

	switch numCPU := runtime.NumCPU(); {
	case numCPU <= 2:
		return 1, 2
	case numCPU <= 4:
		return 1, 3
	case numCPU <= 8:
		return 2, 4
	default:
		return 2, 6
	}
}

// New constructs a Queue. fixedWorkers, when > 0, pins both the minimum and
// maximum pool size and disables auto-scaling; 0 falls back to the
// CPU-count heuristic.
func New(runner JobRunner, jobLog *joblog.Store, bus EventPublisher, fixedWorkers int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	min, max := optimalWorkerCount()
	if fixedWorkers > 0 {
		min, max = fixedWorkers, fixedWorkers
	}

	return &Queue{
		minWorkers:     min,
		maxWorkers:     max,
		currentWorkers: int64(min),
		jobChannel:     make(chan models.JobDescriptor, 200),
		ctx:            ctx,
		cancel:         cancel,
		runner:         runner,
		jobLog:         jobLog,
		bus:            bus,
		autoScale:      min != max,
		lastScaleTime:  time.Now(),
	}
}

// Start launches the worker pool, the crash-recovery scanner, and (if
// enabled) the auto-scaling monitor.
func (q *Queue) Start() {
	workers := int(atomic.LoadInt64(&q.currentWorkers))
	logger.Startup("queue", "starting job queue", "workers", workers, "min", q.minWorkers, "max", q.maxWorkers, "auto_scale", q.autoScale)

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.recoveryScanner()

	if q.autoScale {
		q.wg.Add(1)
		go q.autoScaler()
	}
}

// Stop halts the queue and waits for in-flight jobs to finish (spec §5:
// cancellation is coarse and jobs always run to completion, so Stop never
// interrupts a job already in progress). The job channel is deliberately
// never closed, since a concurrent Enqueue racing Stop would otherwise
// panic on a send to a closed channel; every goroutine instead exits on
// ctx cancellation.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// Enqueue admits job onto the queue, publishing a StageQueued event
// immediately. This satisfies the Gateway's JobSubmitter interface.
func (q *Queue) Enqueue(ctx context.Context, job models.JobDescriptor) error {
	select {
	case <-q.ctx.Done():
		return fmt.Errorf("queue: shutting down")
	default:
	}

	select {
	case q.jobChannel <- job:
		q.publishQueued(job)
		return nil
	case <-q.ctx.Done():
		return fmt.Errorf("queue: shutting down")
	default:
		return fmt.Errorf("queue: full")
	}
}

func (q *Queue) publishQueued(job models.JobDescriptor) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(models.ProgressEvent{
		JobID:     job.JobID,
		ClientID:  job.ClientID,
		StageCode: models.StageQueued,
		StageText: "queued",
	})
}

// worker drains jobChannel, running each job's full pipeline to completion
// before picking up the next. The Worker itself handles publishing
// PROCESSING/COMPLETED/FAILED events and closing the log row; this loop
// only logs the outcome.
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	logger.WorkerOperation(id, "", "started")

	for {
		select {
		case job, ok := <-q.jobChannel:
			if !ok {
				logger.WorkerOperation(id, "", "stopped")
				return
			}
			logger.WorkerOperation(id, job.JobID, "start")
			start := time.Now()
			if _, err := q.runner.Run(context.WithoutCancel(q.ctx), job); err != nil {
				logger.WorkerOperation(id, job.JobID, "failed", "error", err, "elapsed", time.Since(start))
			} else {
				logger.WorkerOperation(id, job.JobID, "completed", "elapsed", time.Since(start))
			}

		case <-q.ctx.Done():
			return
		}
	}
}

// recoveryScanner periodically fails out rows stuck in PROCESSING: since the
// Job Queue only ever held the JobDescriptor in memory, a row still marked
// PROCESSING after a crash belongs to a job whose descriptor is gone and can
// never be re-run — the rescan's job is to close it out, not replay it.
func (q *Queue) recoveryScanner() {
	defer q.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.failOrphanedProcessingRows()
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) failOrphanedProcessingRows() {
	if q.jobLog == nil {
		return
	}
	rows, err := q.jobLog.ListByStatus(q.ctx, models.StatusProcessing)
	if err != nil {
		logger.Warn("queue: recovery scan failed to list processing rows", "error", err)
		return
	}
	for _, row := range rows {
		// A row still PROCESSING means no in-memory worker owns it (jobs
		// update their own row to a terminal state before returning); this
		// can only be reached after a restart lost the in-flight job.
		msg := "job abandoned: process restarted while job was in flight"
		if err := q.jobLog.Update(q.ctx, row.JobID, map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": msg,
		}); err != nil {
			logger.Warn("queue: recovery scan failed to close orphaned row", "job_id", row.JobID, "error", err)
			continue
		}
		if q.bus != nil {
			q.bus.Publish(models.ProgressEvent{JobID: row.JobID, StageCode: models.StageFailed, StageText: msg})
		}
	}
}

// autoScaler mirrors the teacher's load-based scale-up/scale-down monitor.
func (q *Queue) autoScaler() {
	defer q.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.checkAndScale()
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) checkAndScale() {
	q.scaleMutex.Lock()
	defer q.scaleMutex.Unlock()

	if time.Since(q.lastScaleTime) < time.Minute {
		return
	}

	queueSize := len(q.jobChannel)
	current := int(atomic.LoadInt64(&q.currentWorkers))

	switch {
	case queueSize > 10 && current < q.maxWorkers:
		next := current + 1
		atomic.StoreInt64(&q.currentWorkers, int64(next))
		q.wg.Add(1)
		go q.worker(next - 1)
		q.lastScaleTime = time.Now()
		logger.Info("queue: scaled up", "workers", next, "queue_size", queueSize)

	case queueSize == 0 && current > q.minWorkers:
		atomic.StoreInt64(&q.currentWorkers, int64(current-1))
		q.lastScaleTime = time.Now()
		logger.Info("queue: scaled down", "workers", current-1, "queue_size", queueSize)
		// The worker goroutine itself isn't interrupted; it simply isn't
		// replaced once it exits on ctx cancellation at Stop.
	}
}

// Stats reports queue depth and pool size for a diagnostics endpoint.
func (q *Queue) Stats() map[string]interface{} {
	return map[string]interface{}{
		"queue_size":      len(q.jobChannel),
		"queue_capacity":  cap(q.jobChannel),
		"current_workers": int(atomic.LoadInt64(&q.currentWorkers)),
		"min_workers":     q.minWorkers,
		"max_workers":     q.maxWorkers,
		"auto_scale":      q.autoScale,
	}
}
