package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Job is a named unit of work run by the pool
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs submitted jobs on a fixed number of workers.
// Cancelling the parent context stops workers after their current job.
type Pool struct {
	jobs     chan Job
	size     int
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	errs     []error
	errorsMu sync.Mutex
	logger   arbor.ILogger
}

// NewPool creates a pool of size workers bound to parent
func NewPool(parent context.Context, size int, logger arbor.ILogger) *Pool {
	if size <= 0 {
		size = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		jobs:   make(chan Job, size*2),
		size:   size,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.Debug().Int("workers", p.size).Msg("Starting worker pool")

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", p.ctx.Err())
	}
}

// Wait closes the queue, waits for the workers and returns every job error joined
func (p *Pool) Wait() error {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()

	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	return errors.Join(p.errs...)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(id, job)

		case <-p.ctx.Done():
			p.logger.Debug().Int("worker_id", id).Msg("Worker stopping - context cancelled")
			return
		}
	}
}

func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.record(fmt.Errorf("%s: panic: %v", job.Name, r))
			p.logger.Error().Int("worker_id", id).Str("job", job.Name).Str("panic", fmt.Sprintf("%v", r)).Msg("Job panicked")
		}
	}()

	if err := job.Run(p.ctx); err != nil {
		p.record(fmt.Errorf("%s: %w", job.Name, err))
	}
}

func (p *Pool) record(err error) {
	p.errorsMu.Lock()
	p.errs = append(p.errs, err)
	p.errorsMu.Unlock()
}
