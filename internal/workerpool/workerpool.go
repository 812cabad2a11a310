// Package workerpool runs per-session jobs in parallel.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool provides a reusable worker pool pattern for parallel processing.
// It manages job distribution across multiple workers and collects results.
type WorkerPool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// If numWorkers is 0 or negative, it defaults to the number of CPUs.
// If numJobs is less than numWorkers, the pool is sized to match numJobs.
func New[Job any, Result any](numWorkers, numJobs int) *WorkerPool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &WorkerPool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numJobs),
		results:    make(chan Result, numJobs),
	}
}

// Workers returns the number of workers the pool starts.
func (p *WorkerPool[Job, Result]) Workers() int {
	return p.numWorkers
}

// Start begins the worker pool with the provided worker function.
// The workerFn is called for each job and should return a result.
func (p *WorkerPool[Job, Result]) Start(workerFn func(Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- workerFn(job)
			}
		}()
	}
}

// Submit adds a job to the worker pool's job queue.
func (p *WorkerPool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// Close closes the job channel and waits for all workers to complete.
// After calling Close, the results channel will be closed automatically.
func (p *WorkerPool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the results channel for collecting worker outputs.
func (p *WorkerPool[Job, Result]) Results() <-chan Result {
	return p.results
}

type indexed[T any] struct {
	i       int
	val     T
	err     error
	skipped bool
}

// Map runs fn over every index in [0, n) on up to workers goroutines and
// returns the results in index order. Once a job fails, or ctx is
// cancelled, jobs that have not started are skipped. The error of the
// lowest failing index is returned, or the context error when only
// skipped jobs remain.
func Map[Result any](ctx context.Context, workers, n int, fn func(ctx context.Context, i int) (Result, error)) ([]Result, error) {
	out := make([]Result, n)
	if n == 0 {
		return out, ctx.Err()
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := New[int, indexed[Result]](workers, n)
	pool.Start(func(i int) indexed[Result] {
		if err := jobCtx.Err(); err != nil {
			return indexed[Result]{i: i, err: err, skipped: true}
		}
		val, err := fn(jobCtx, i)
		if err != nil {
			cancel()
		}
		return indexed[Result]{i: i, val: val, err: err}
	})
	for i := 0; i < n; i++ {
		pool.Submit(i)
	}
	pool.Close()

	var (
		jobErr  error
		jobIdx  = n
		skipErr error
	)
	for r := range pool.Results() {
		switch {
		case r.skipped:
			skipErr = r.err
		case r.err != nil:
			if r.i < jobIdx {
				jobErr, jobIdx = r.err, r.i
			}
		default:
			out[r.i] = r.val
		}
	}
	if jobErr != nil {
		return nil, jobErr
	}
	if skipErr != nil {
		return nil, ctx.Err()
	}
	return out, nil
}
