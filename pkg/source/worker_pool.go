package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/ambient/pkg/util"
)

// FileJob is one declaration file queued for processing. Index is the
// file's position in the load order.
type FileJob struct {
	Path  string
	Index int
}

// FileResult carries a processed file back to the collector.
type FileResult[R any] struct {
	Path   string
	Index  int
	Result R
}

// FileError reports a job that failed.
type FileError struct {
	Path  string
	Index int
	Err   error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

// ProcessFunc handles a single job on a worker goroutine.
type ProcessFunc[R any] func(ctx context.Context, job FileJob) (R, error)

// WorkerPool runs ProcessFunc over submitted jobs on a fixed set of
// goroutines. Results arrive in completion order; callers restore load
// order with FileResult.Index.
//
// Usage:
//
//	pool := NewWorkerPool(ctx, workers, process, logger)
//	pool.Start()
//	defer pool.Stop()
//
//	go func() {
//	    for i, p := range paths {
//	        pool.Submit(FileJob{Path: p, Index: i})
//	    }
//	    pool.FinishSubmitting()
//	}()
//
//	for i := 0; i < len(paths); i++ {
//	    select {
//	    case res := <-pool.Results():
//	        // ...
//	    case err := <-pool.Errors():
//	        // ...
//	    }
//	}
//
// The worker count should match the parser pool size so workers never
// wait on parsers.
type WorkerPool[R any] struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult[R]
	errors     chan FileError
	wg         sync.WaitGroup
	process    ProcessFunc[R]
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a pool. numWorkers <= 0 uses
// util.GetOptimalPoolSize. Cancelling ctx stops the workers.
func NewWorkerPool[R any](ctx context.Context, numWorkers int, process ProcessFunc[R], logger *slog.Logger) *WorkerPool[R] {
	numWorkers = util.GetOptimalPoolSizeWithOverride(numWorkers)
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool[R]{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult[R], numWorkers),
		errors:     make(chan FileError, numWorkers),
		process:    process,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the workers. It must be called before Submit.
func (wp *WorkerPool[R]) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}
	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool[R]) worker(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.run(id, job)
		}
	}
}

func (wp *WorkerPool[R]) run(workerID int, job FileJob) {
	result, err := wp.process(wp.ctx, job)
	if err != nil {
		wp.logger.Debug("job failed", "worker_id", workerID, "file", job.Path, "error", err)
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- FileError{Path: job.Path, Index: job.Index, Err: err}:
		case <-wp.ctx.Done():
		}
		return
	}
	wp.jobsProcessed.Add(1)
	select {
	case wp.results <- FileResult[R]{Path: job.Path, Index: job.Index, Result: result}:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (wp *WorkerPool[R]) Submit(job FileJob) error {
	if wp.stopped.Load() || wp.jobsClosed.Load() {
		return fmt.Errorf("worker pool is not accepting jobs")
	}
	wp.jobsSubmitted.Add(1)
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", wp.ctx.Err())
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool[R]) Results() <-chan FileResult[R] { return wp.results }

// Errors returns the errors channel.
func (wp *WorkerPool[R]) Errors() <-chan FileError { return wp.errors }

// Done is closed when the pool's context is cancelled.
func (wp *WorkerPool[R]) Done() <-chan struct{} { return wp.ctx.Done() }

// FinishSubmitting closes the job queue so workers exit once it drains.
// Safe to call more than once.
func (wp *WorkerPool[R]) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
		wp.logger.Debug("job queue closed", "total_submitted", wp.jobsSubmitted.Load())
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool[R]) Wait() { wp.wg.Wait() }

// Stop cancels outstanding work, waits for the workers and closes the
// result channels. Safe to call more than once.
func (wp *WorkerPool[R]) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	wp.FinishSubmitting()
	wp.cancel()
	wp.wg.Wait()
	close(wp.results)
	close(wp.errors)
	wp.logger.Debug("worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns the pool counters.
func (wp *WorkerPool[R]) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats describes pool activity.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int
}
