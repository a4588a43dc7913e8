package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igfetch/pkg/logger"
	"igfetch/pkg/scraper"
)

// Job is one post to download; Index is its position in the batch
type Job struct {
	Index   int
	Request scraper.Request
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Post     *scraper.PostResult
	Error    error
	Duration time.Duration
}

// Processor downloads a single post
type Processor interface {
	Download(ctx context.Context, req scraper.Request) (*scraper.PostResult, error)
}

// WorkerPool runs posts through a Processor with bounded concurrency
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	processor   Processor
	logger      logger.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int, processor Processor, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		processor:   processor,
		logger:      log,
	}
}

// Start launches the workers; they stop when ctx is cancelled or Stop is called
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs to finish and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"index": job.Index,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
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

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	log := wp.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"index":     job.Index,
	})
	log.Debug("Worker processing job")

	post, err := wp.processor.Download(wp.ctx, job.Request)
	result := Result{Job: job, Post: post, Error: err, Duration: time.Since(start)}
	if err != nil {
		log.WithError(err).Error("Post download failed")
	}
	return result
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}

// Run downloads every request with numWorkers workers and returns the
// results in request order. Requests never started because ctx ended carry
// ctx's error.
func Run(ctx context.Context, processor Processor, reqs []scraper.Request, numWorkers int, log logger.Logger) []Result {
	pool := NewWorkerPool(min(numWorkers, max(len(reqs), 1)), processor, log)
	pool.Start(ctx)

	go func() {
		defer pool.Stop()
		for i, req := range reqs {
			if err := pool.Submit(Job{Index: i, Request: req}); err != nil {
				return
			}
		}
	}()

	results := make([]Result, len(reqs))
	seen := make([]bool, len(reqs))
	for res := range pool.Results() {
		results[res.Job.Index] = res
		seen[res.Job.Index] = true
	}

	for i := range results {
		if !seen[i] {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("post was not processed")
			}
			results[i] = Result{Job: Job{Index: i, Request: reqs[i]}, Error: err}
		}
	}
	return results
}
