// Package prefetch warms the avatar cache for a batch of handles, typically
// the added/removed lists of a diff, using a bounded worker pool.
package prefetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igfollow/pkg/logger"
)

// Job is a single avatar warm-up task
type Job struct {
	Handle string
}

// Result is the outcome of one warm-up
type Result struct {
	Job        Job
	Success    bool
	CachedPath string
	Error      error
	Duration   time.Duration
}

// AvatarWarmer downloads one handle's avatar into the cache. The empty path
// with a nil error means the avatar was already cached.
type AvatarWarmer interface {
	Warm(ctx context.Context, handle string) (string, error)
}

// Pool manages concurrent warm-up workers
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	warmer      AvatarWarmer
	logger      logger.Logger
}

// NewPool creates a warm-up pool
func NewPool(numWorkers int, warmer AvatarWarmer, log logger.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		warmer:      warmer,
		logger:      log,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("Starting avatar prefetch pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains remaining jobs and shuts the pool down
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Info("Avatar prefetch pool stopped")
}

// Submit queues one handle for warm-up
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("prefetch pool is shutting down")
	}
}

// Results returns the result channel
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

// QueueSize returns the current number of queued jobs
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.process(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) process(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	path, err := p.warmer.Warm(p.ctx, job.Handle)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = fmt.Errorf("warm-up failed: %w", err)
		p.logger.ErrorWithFields("Avatar warm-up failed", map[string]interface{}{
			"worker_id": workerID,
			"handle":    job.Handle,
			"error":     err.Error(),
		})
		return result
	}

	result.Success = true
	result.CachedPath = path

	p.logger.DebugWithFields("Avatar warmed", map[string]interface{}{
		"worker_id": workerID,
		"handle":    job.Handle,
		"cached":    path != "",
		"duration":  result.Duration,
	})

	return result
}

// Summary aggregates a full warm-up run
type Summary struct {
	Total   int
	Warmed  int
	Skipped int
	Failed  int
}

// WarmAll runs the whole batch and blocks until every handle is processed
func WarmAll(handles []string, numWorkers int, warmer AvatarWarmer, log logger.Logger) Summary {
	pool := NewPool(numWorkers, warmer, log)
	pool.Start()

	go func() {
		for _, handle := range handles {
			if err := pool.Submit(Job{Handle: handle}); err != nil {
				return
			}
		}
		pool.Stop()
	}()

	var summary Summary
	for result := range pool.Results() {
		summary.Total++
		switch {
		case result.Error != nil:
			summary.Failed++
		case result.CachedPath == "":
			summary.Skipped++
		default:
			summary.Warmed++
		}
	}

	return summary
}
