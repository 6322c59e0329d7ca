package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roosthq/roost/internal/metrics"
)

// ErrQueueFull means the job was rejected because the queue is at
// capacity. The API maps it to 503 so callers can back off.
var ErrQueueFull = errors.New("job queue is full")

// Executor runs one agent turn and returns its output.
type Executor func(ctx context.Context, job *Job) (string, error)

// Pool is the daemon's job queue plus the fixed set of workers that
// drain it. Job snapshots stay retrievable by id for the lifetime of
// the daemon process; nothing is persisted.
type Pool struct {
	queue   chan string
	workers int
	exec    Executor
	log     *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
	busy int

	onDone func(Job) // runs on the worker goroutine after a job settles

	wg sync.WaitGroup
}

// NewPool sizes the queue and worker set. The executor is what each
// worker calls per job.
func NewPool(workers, queueSize int, exec Executor, log *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		queue:   make(chan string, queueSize),
		workers: workers,
		exec:    exec,
		log:     log,
		jobs:    make(map[string]*Job),
	}
}

// OnDone installs a callback invoked with the final snapshot of every
// settled job. Set before Start.
func (p *Pool) OnDone(fn func(Job)) { p.onDone = fn }

// Start launches the workers. They exit when ctx is canceled; Wait
// blocks until every worker finished its current job.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until all workers returned.
func (p *Pool) Wait() { p.wg.Wait() }

// Submit queues a new job and returns its snapshot. A full queue
// rejects immediately with ErrQueueFull rather than blocking an API
// request behind the backlog.
func (p *Pool) Submit(persona, input, source string) (Job, error) {
	job := &Job{
		ID:        newJobID(),
		Persona:   persona,
		Input:     input,
		Source:    source,
		State:     JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	select {
	case p.queue <- job.ID:
		metrics.IncJobSubmitted(persona)
		metrics.SetQueueDepth(len(p.queue))
		return *job, nil
	default:
		p.mu.Lock()
		delete(p.jobs, job.ID)
		p.mu.Unlock()
		metrics.IncJobRejected()
		return Job{}, ErrQueueFull
	}
}

// Get returns a snapshot of the job by id.
func (p *Pool) Get(id string) (Job, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Depth is the number of jobs waiting in the queue.
func (p *Pool) Depth() int { return len(p.queue) }

// Capacity is the queue size.
func (p *Pool) Capacity() int { return cap(p.queue) }

// Busy is the number of workers currently executing a job.
func (p *Pool) Busy() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.busy
}

// Workers is the configured worker count.
func (p *Pool) Workers() int { return p.workers }

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-p.queue:
			metrics.SetQueueDepth(len(p.queue))
			p.run(ctx, id)
		}
	}
}

func (p *Pool) run(ctx context.Context, id string) {
	p.mu.Lock()
	job, ok := p.jobs[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	job.State = JobRunning
	p.busy++
	metrics.SetWorkersBusy(p.busy)
	p.mu.Unlock()

	started := time.Now()
	output, err := p.exec(ctx, job)

	p.mu.Lock()
	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
	} else {
		job.State = JobDone
		job.Output = output
	}
	p.busy--
	metrics.SetWorkersBusy(p.busy)
	snapshot := *job
	p.mu.Unlock()

	metrics.IncJobCompleted(string(snapshot.State))
	metrics.ObserveJobDuration(time.Since(started))
	if err != nil {
		p.log.Warn("job failed", "job", id, "persona", snapshot.Persona, "error", err)
	} else {
		p.log.Debug("job done", "job", id, "persona", snapshot.Persona)
	}
	if p.onDone != nil {
		p.onDone(snapshot)
	}
}
