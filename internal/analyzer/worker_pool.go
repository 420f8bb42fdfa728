package analyzer

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go-dirtycam/internal/logger"
)

// PoolStats is a snapshot of the pool's job counters
type PoolStats struct {
	TotalJobs     int64
	CompletedJobs int64
	PanickedJobs  int64
	ActiveWorkers int64
}

// WorkerPool runs submitted jobs on a fixed set of goroutines. Images are
// the unit of work; jobs share no mutable state.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	start    sync.Once
	stop     sync.Once

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	panickedJobs  atomic.Int64
	activeWorkers atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.start.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

// run executes one job; a panicking job is logged and counted, and the
// worker keeps going
func (wp *WorkerPool) run(job func()) {
	wp.activeWorkers.Add(1)
	defer func() {
		if r := recover(); r != nil {
			wp.panickedJobs.Add(1)
			logger.WithField("panic", r).Error("Worker job panicked")
		}
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
		wp.wg.Done()
	}()
	job()
}

// Submit adds a job to the queue, blocking while the queue is full
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.totalJobs.Add(1)
	wp.jobQueue <- job
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close shuts down the worker pool. Submit must not be called afterwards.
func (wp *WorkerPool) Close() {
	wp.stop.Do(func() {
		close(wp.jobQueue)
	})
}

// GetStats returns the current job counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		PanickedJobs:  wp.panickedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}
