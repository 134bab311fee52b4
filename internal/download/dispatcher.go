package download

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/yt-bot/internal/gate"
	"github.com/ytget/yt-bot/internal/i18n"
	"github.com/ytget/yt-bot/internal/model"
)

// Dispatcher defaults
const (
	DefaultWorkers    = 2
	DefaultQueueSize  = 32
	DefaultJobTimeout = 30 * time.Minute
	JobIDPrefix       = "job-"
)

// Executor runs one job to a terminal state
type Executor interface {
	Execute(ctx context.Context, job *model.Job) error
}

// transitionSource is implemented by executors that report state changes
type transitionSource interface {
	SetTransitionHook(fn TransitionFunc)
}

// Options configures a Dispatcher
type Options struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	Notifier   Notifier
	Texts      Translator
	Recorder   Recorder
	Logger     *slog.Logger
}

// Admission describes an accepted submission
type Admission struct {
	JobID    string
	Position int // jobs waiting in the queue, this one included
}

type entry struct {
	snapshot model.JobSnapshot
	cancel   context.CancelFunc
}

type queuedJob struct {
	job    *model.Job
	ctx    context.Context
	cancel context.CancelFunc
}

// Dispatcher admits requests and feeds them to a fixed pool of workers.
// Submit never blocks on a job; when the queue is full the request is
// refused with ErrQueueFull.
type Dispatcher struct {
	executor Executor
	admitter Admitter
	notifier Notifier
	texts    Translator
	recorder Recorder
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	newID    func() string

	queue chan *queuedJob

	mu      sync.RWMutex
	closed  bool
	started bool
	jobs    map[string]*entry

	baseCtx    context.Context
	baseCancel context.CancelFunc
	group      errgroup.Group
}

// NewDispatcher creates a dispatcher. Workers do not run until Start.
func NewDispatcher(executor Executor, admitter Admitter, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultJobTimeout
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Texts == nil {
		opts.Texts = i18n.NewLocalization(i18n.DefaultLanguage)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		executor:   executor,
		admitter:   admitter,
		notifier:   opts.Notifier,
		texts:      opts.Texts,
		recorder:   opts.Recorder,
		logger:     opts.Logger.With("component", "dispatcher"),
		workers:    opts.Workers,
		timeout:    opts.JobTimeout,
		newID:      generateJobID,
		queue:      make(chan *queuedJob, opts.QueueSize),
		jobs:       make(map[string]*entry),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
	if src, ok := executor.(transitionSource); ok {
		src.SetTransitionHook(d.Observe)
	}
	return d
}

// Start launches the workers. Calling it twice has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		worker := i + 1
		d.group.Go(func() error {
			d.work(worker)
			return nil
		})
	}
	d.logger.Info("dispatcher started", "workers", d.workers, "queue_size", cap(d.queue), "job_timeout", d.timeout)
}

// Submit runs the admission check and enqueues the request. Maintenance
// and a full queue are reported to the requester; banned users get no reply.
func (d *Dispatcher) Submit(ctx context.Context, req model.Request) (Admission, error) {
	if err := req.Target.Validate(); err != nil {
		return Admission{}, fmt.Errorf("invalid request: %w", err)
	}

	if d.admitter != nil {
		decision := d.admitter.Admit(ctx, req.Requester.ID)
		if !decision.Allowed {
			d.recorder.JobRejected()
			if decision.Reason == gate.ReasonMaintenance {
				d.notify(ctx, req.ChatID, i18n.KeyMaintenance)
			}
			d.logger.Info("request rejected", "user_id", req.Requester.ID, "reason", decision.Reason)
			return Admission{}, &JobError{Kind: KindGateRejected, Err: fmt.Errorf("%w: %s", ErrRejected, decision.Reason)}
		}
	}

	job := model.NewJob(d.newID(), req)
	jobCtx, cancel := context.WithCancel(d.baseCtx)
	q := &queuedJob{job: job, ctx: jobCtx, cancel: cancel}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return Admission{}, ErrClosed
	}
	d.jobs[job.ID] = &entry{snapshot: snapshotOf(job), cancel: cancel}
	select {
	case d.queue <- q:
	default:
		delete(d.jobs, job.ID)
		d.mu.Unlock()
		cancel()
		d.recorder.JobRejected()
		d.notify(ctx, req.ChatID, i18n.KeyBusy)
		d.logger.Warn("queue full, request refused", "user_id", req.Requester.ID, "queue_size", cap(d.queue))
		return Admission{}, &JobError{Kind: KindQueueFull, Err: ErrQueueFull}
	}
	depth := len(d.queue)
	d.mu.Unlock()

	d.recorder.SetQueueDepth(depth)
	d.logger.Info("job queued", "job_id", job.ID, "user_id", req.Requester.ID, "position", depth)
	return Admission{JobID: job.ID, Position: depth}, nil
}

// Cancel stops a queued or running job
func (d *Dispatcher) Cancel(jobID string) error {
	d.mu.RLock()
	e, ok := d.jobs[jobID]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	e.cancel()
	d.logger.Info("job cancel requested", "job_id", jobID)
	return nil
}

// Active returns queued and running jobs, oldest first
func (d *Dispatcher) Active() []model.JobSnapshot {
	d.mu.RLock()
	out := make([]model.JobSnapshot, 0, len(d.jobs))
	for _, e := range d.jobs {
		out = append(out, e.snapshot)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// QueueLen returns the number of jobs waiting for a worker
func (d *Dispatcher) QueueLen() int {
	return len(d.queue)
}

// Observe records a state change reported by the executor
func (d *Dispatcher) Observe(job *model.Job, _, to model.JobState) {
	d.mu.Lock()
	if e, ok := d.jobs[job.ID]; ok {
		e.snapshot.State = to
	}
	d.mu.Unlock()
}

// Shutdown stops accepting jobs, cancels queued and running ones and waits
// for the workers to exit or ctx to end
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.baseCancel()

	done := make(chan error, 1)
	go func() {
		done <- d.group.Wait()
	}()

	select {
	case err := <-done:
		d.logger.Info("dispatcher stopped")
		return err
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(worker int) {
	for q := range d.queue {
		d.recorder.SetQueueDepth(len(d.queue))
		d.run(worker, q)
	}
}

func (d *Dispatcher) run(worker int, q *queuedJob) {
	defer d.unregister(q.job.ID)
	defer q.cancel()

	logger := d.logger.With("job_id", q.job.ID, "worker", worker)

	if err := q.ctx.Err(); err != nil {
		if terr := q.job.TransitionTo(model.JobStateRunFailed); terr != nil {
			logger.Error("dropping job transition", "error", terr)
		}
		q.job.Err = &JobError{Kind: KindCanceled, Err: err}
		d.recorder.JobStarted()
		d.recorder.JobFinished(q.job.State, 0)
		d.notify(context.WithoutCancel(q.ctx), q.job.Request.ChatID, i18n.KeyErrorCanceled)
		logger.Info("job canceled before start")
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("executor panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := d.executor.Execute(ctx, q.job); err != nil {
		logger.Debug("job ended with error", "error", err)
	}
}

func (d *Dispatcher) unregister(jobID string) {
	d.mu.Lock()
	delete(d.jobs, jobID)
	d.mu.Unlock()
}

func (d *Dispatcher) notify(ctx context.Context, chatID int64, key string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.SendText(ctx, chatID, d.texts.Textf(key)); err != nil {
		d.logger.Debug("failed to notify requester", "chat_id", chatID, "error", err)
	}
}

func snapshotOf(job *model.Job) model.JobSnapshot {
	return model.JobSnapshot{
		ID:        job.ID,
		UserID:    job.Request.Requester.ID,
		ChatID:    job.Request.ChatID,
		Target:    job.Request.Target,
		State:     job.State,
		CreatedAt: job.CreatedAt,
	}
}

// generateJobID generates a unique job ID using UUID v7, which is time ordered
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(JobIDPrefix+"%d", time.Now().UnixNano())
	}
	return JobIDPrefix + id.String()
}
