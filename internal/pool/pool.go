// Package pool runs independent jobs on a fixed number of workers.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stopsum/pkg/logger"
)

// ProcessFunc handles a single job
type ProcessFunc[J, R any] func(ctx context.Context, job J) (R, error)

// Result represents the outcome of a job
type Result[J, R any] struct {
	Job      J
	Value    R
	Err      error
	Duration time.Duration
}

// WorkerPool manages concurrent workers
type WorkerPool[J, R any] struct {
	numWorkers  int
	jobQueue    chan J
	resultQueue chan Result[J, R]
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	process     ProcessFunc[J, R]
	logger      logger.Logger
}

// New creates a worker pool. Workers stop early when ctx is cancelled.
func New[J, R any](ctx context.Context, numWorkers int, process ProcessFunc[J, R], log logger.Logger) *WorkerPool[J, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool[J, R]{
		numWorkers:  numWorkers,
		jobQueue:    make(chan J, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan Result[J, R], numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		process:     process,
		logger:      log,
	}
}

// Start starts all workers
func (wp *WorkerPool[J, R]) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for the workers and closes the result channel.
// Results must be drained concurrently or Stop blocks.
func (wp *WorkerPool[J, R]) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a job to the queue
func (wp *WorkerPool[J, R]) Submit(job J) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool[J, R]) Results() <-chan Result[J, R] {
	return wp.resultQueue
}

// Size returns the number of workers
func (wp *WorkerPool[J, R]) Size() int {
	return wp.numWorkers
}

func (wp *WorkerPool[J, R]) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		start := time.Now()
		value, err := wp.process(wp.ctx, job)
		result := Result[J, R]{Job: job, Value: value, Err: err, Duration: time.Since(start)}

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

type indexed[J any] struct {
	index int
	job   J
}

// Map processes jobs on numWorkers workers and returns the results in job
// order. Jobs not run because ctx was cancelled carry ctx.Err().
func Map[J, R any](ctx context.Context, numWorkers int, jobs []J, process ProcessFunc[J, R], log logger.Logger) []Result[J, R] {
	wp := New(ctx, min(numWorkers, max(len(jobs), 1)), func(ctx context.Context, in indexed[J]) (R, error) {
		return process(ctx, in.job)
	}, log)
	wp.Start()

	go func() {
		defer wp.Stop()
		for i, job := range jobs {
			if err := wp.Submit(indexed[J]{index: i, job: job}); err != nil {
				return
			}
		}
	}()

	results := make([]Result[J, R], len(jobs))
	done := make([]bool, len(jobs))
	for r := range wp.Results() {
		results[r.Job.index] = Result[J, R]{Job: r.Job.job, Value: r.Value, Err: r.Err, Duration: r.Duration}
		done[r.Job.index] = true
	}

	for i := range results {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = Result[J, R]{Job: jobs[i], Err: err}
		}
	}
	return results
}
