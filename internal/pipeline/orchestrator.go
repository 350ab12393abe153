package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dgallion1/tabusync/internal/config"
)

var (
	// ErrQueueFull means the account already has the maximum number of
	// pending jobs.
	ErrQueueFull = errors.New("account queue is full")
	// ErrNotRunning means the orchestrator was never started or is stopping.
	ErrNotRunning = errors.New("orchestrator is not running")
)

// Processor runs one job to completion. It records the outcome on the job
// itself and never returns an error.
type Processor interface {
	Process(ctx context.Context, job *Job)
}

// Orchestrator runs jobs for one account strictly one at a time in arrival
// order. Different accounts run concurrently up to a global limit.
type Orchestrator struct {
	jobs     *JobStore
	proc     Processor
	sem      *semaphore.Weighted
	maxQueue int
	log      *slog.Logger

	mu      sync.Mutex
	queues  map[string][]*Job
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

func NewOrchestrator(cfg config.Config, proc Processor, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		proc:     proc,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs)),
		maxQueue: cfg.MaxQueuePerAccount,
		log:      log,
		queues:   make(map[string][]*Job),
	}
}

// Start enables submissions and launches job store cleanup.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.ctx, o.cancel = context.WithCancel(ctx)
	runCtx := o.ctx
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop rejects new jobs, fails jobs still waiting in a queue and waits for
// running jobs to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit queues a job behind the account's pending jobs.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx == nil || o.stopped {
		return ErrNotRunning
	}
	queue, draining := o.queues[job.AccountID]
	if len(queue) >= o.maxQueue {
		return fmt.Errorf("%w (%d pending for account %s)", ErrQueueFull, len(queue), job.AccountID)
	}

	o.jobs.Put(job)
	o.queues[job.AccountID] = append(queue, job)
	o.log.Info("job queued", "job_id", job.ID, "account_id", job.AccountID, "pending", len(queue)+1)

	if !draining {
		o.wg.Add(1)
		go o.drain(o.ctx, job.AccountID)
	}
	return nil
}

// drain runs the account's jobs until its queue is empty. The account entry
// exists exactly while a drainer runs for it.
func (o *Orchestrator) drain(ctx context.Context, accountID string) {
	defer o.wg.Done()
	for {
		job, ok := o.next(accountID)
		if !ok {
			return
		}
		if err := o.sem.Acquire(ctx, 1); err != nil {
			o.abandon(accountID, job)
			return
		}
		o.run(ctx, job)
		o.sem.Release(1)
	}
}

func (o *Orchestrator) next(accountID string) (*Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue := o.queues[accountID]
	if len(queue) == 0 {
		delete(o.queues, accountID)
		return nil, false
	}
	job := queue[0]
	o.queues[accountID] = queue[1:]
	return job, true
}

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "account_id", job.AccountID)
	start := time.Now()
	log.Info("job started")
	o.proc.Process(ctx, job)
	snap := job.Snapshot()
	log.Info("job finished", "status", snap.Status, "duration_ms", time.Since(start).Milliseconds())
}

// abandon fails job and everything still queued for the account.
func (o *Orchestrator) abandon(accountID string, job *Job) {
	o.mu.Lock()
	pending := append([]*Job{job}, o.queues[accountID]...)
	delete(o.queues, accountID)
	o.mu.Unlock()

	for _, j := range pending {
		j.AddError("service shutting down before the job started")
		j.SetStatus(StatusFailed, "shutdown")
	}
	o.log.Warn("abandoned queued jobs", "account_id", accountID, "count", len(pending))
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting for an account, not counting
// the one running.
func (o *Orchestrator) QueueDepth(accountID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queues[accountID])
}
