package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ytget/yt-bot/internal/i18n"
	"github.com/ytget/yt-bot/internal/model"
	"github.com/ytget/yt-bot/internal/platform"
	"github.com/ytget/yt-bot/internal/process"
	"github.com/ytget/yt-bot/internal/store"
)

// DefaultNotifyTimeout bounds status edits sent after the job context ended
const DefaultNotifyTimeout = 10 * time.Second

// Deps groups the collaborators of a Service
type Deps struct {
	Chat      Chat
	Deliverer Deliverer
	Runner    Runner
	WorkAreas WorkAreas
	Builder   CommandBuilder
	Stats     StatStore
	Texts     Translator
	Recorder  Recorder
	Logger    *slog.Logger
}

// Service runs a single job from Admitted to a terminal state. One Service
// is shared by all workers; per-job state lives in the model.Job.
type Service struct {
	chat      Chat
	deliverer Deliverer
	runner    Runner
	areas     WorkAreas
	builder   CommandBuilder
	stats     StatStore
	texts     Translator
	recorder  Recorder
	logger    *slog.Logger

	onTransition  TransitionFunc
	notifyTimeout time.Duration
	now           func() time.Time
}

// NewService creates a new job service
func NewService(deps Deps) *Service {
	s := &Service{
		chat:          deps.Chat,
		deliverer:     deps.Deliverer,
		runner:        deps.Runner,
		areas:         deps.WorkAreas,
		builder:       deps.Builder,
		stats:         deps.Stats,
		texts:         deps.Texts,
		recorder:      deps.Recorder,
		logger:        deps.Logger,
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.texts == nil {
		s.texts = i18n.NewLocalization(i18n.DefaultLanguage)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "download")
	return s
}

// SetTransitionHook registers fn to be called on every state change
func (s *Service) SetTransitionHook(fn TransitionFunc) {
	s.onTransition = fn
}

// Execute drives job through Preparing, Running, Resolving and Delivering.
// Every failure is terminal and reported to the requester once. The work
// area is removed on every path, success or failure.
func (s *Service) Execute(ctx context.Context, job *model.Job) (err error) {
	logger := s.logger.With(
		"job_id", job.ID,
		"user_id", job.Request.Requester.ID,
		"chat_id", job.Request.ChatID,
	)

	job.StartedAt = s.now()
	s.recorder.JobStarted()
	defer func() {
		job.FinishedAt = s.now()
		s.recorder.JobFinished(job.State, job.Duration())
		if err != nil {
			logger.Warn("job failed", "state", job.State, "duration", job.Duration(), "error", err)
			return
		}
		logger.Info("job completed", "title", job.GetDisplayTitle(), "duration", job.Duration(), "file", job.Artifact.Name())
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
			err = s.fail(ctx, logger, job, model.JobStateRunFailed, KindPanic, fmt.Errorf("panic: %v", r))
		}
	}()

	s.openStatus(ctx, logger, job)

	area, err := s.areas.Allocate(job.ID)
	if err != nil {
		return s.fail(ctx, logger, job, model.JobStateRunFailed, KindWorkArea, err)
	}
	defer func() {
		if cerr := area.Cleanup(); cerr != nil {
			logger.Error("failed to clean up work area", "dir", area.Dir(), "error", cerr)
		}
	}()

	// Preparing
	s.transition(logger, job, model.JobStatePreparing)
	if err := area.Prepare(); err != nil {
		return s.fail(ctx, logger, job, model.JobStateRunFailed, KindWorkArea, err)
	}
	job.Dir = area.Dir()

	command, err := s.builder.Build(job.Request.Target, area.Dir())
	if err != nil {
		return s.fail(ctx, logger, job, model.JobStateRunFailed, KindCommand, err)
	}

	// Running
	s.transition(logger, job, model.JobStateRunning)
	logger.Debug("running extraction tool", "command", command)
	outcome, err := s.runner.Run(ctx, command, s.progressHandler(ctx, logger, job))
	job.Outcome = &outcome
	if err != nil {
		return s.fail(ctx, logger, job, model.JobStateRunFailed, classifyRunError(err), err)
	}
	if !outcome.Success() {
		logger.Error("extraction tool failed", "exit_code", outcome.ExitCode, "output", outcome.Output)
		return s.fail(ctx, logger, job, model.JobStateRunFailed, KindNonZeroExit,
			fmt.Errorf("%w: exit code %d", ErrNonZeroExit, outcome.ExitCode))
	}

	// Resolving
	s.transition(logger, job, model.JobStateResolving)
	path, found, err := area.FindProducedFile()
	if err != nil {
		return s.fail(ctx, logger, job, model.JobStateArtifactMissing, KindArtifactMissing, err)
	}
	if !found {
		logger.Error("no artifact after successful run", "dir", area.Dir(), "output", outcome.Output)
		return s.fail(ctx, logger, job, model.JobStateArtifactMissing, KindArtifactMissing, ErrArtifactMissing)
	}
	size, err := platform.FileSize(path)
	if err != nil {
		return s.fail(ctx, logger, job, model.JobStateArtifactMissing, KindArtifactMissing, err)
	}
	job.Artifact = &model.Artifact{Path: path, Kind: job.Request.Target.Kind, Size: size}

	// Delivering
	s.transition(logger, job, model.JobStateDelivering)
	s.editStatus(ctx, logger, job, s.texts.Textf(i18n.KeyStatusSending))
	method, err := s.deliverer.DeliverArtifact(ctx, job.Request.ChatID, *job.Artifact)
	if err != nil {
		kind := KindDeliveryFailure
		if errors.Is(err, model.ErrArtifactTooLarge) {
			kind = KindTooLarge
		}
		return s.fail(ctx, logger, job, model.JobStateDeliveryFailed, kind, err)
	}

	// Completed
	s.transition(logger, job, model.JobStateCompleted)
	s.recorder.Delivered(method, size)

	bctx, cancel := s.notifyContext(ctx)
	defer cancel()
	if !job.Status.IsZero() {
		if err := s.chat.DeleteStatus(bctx, job.Status); err != nil {
			logger.Debug("failed to delete status message", "error", err)
		}
	}
	if s.stats != nil {
		if err := s.stats.IncrementStat(bctx, store.StatSuccessfulDownloads); err != nil {
			logger.Warn("failed to record completed download", "error", err)
		}
	}
	return nil
}

// progressHandler forwards throttled percentages to the status message.
// It runs on the worker goroutine and never fails the run.
func (s *Service) progressHandler(ctx context.Context, logger *slog.Logger, job *model.Job) process.LineFunc {
	throttle := platform.NewProgressThrottle()
	return func(line string) error {
		percent, ok := platform.ParseProgress(line)
		if !ok || !throttle.Observe(percent) {
			return nil
		}
		job.LastPercent = percent
		s.recorder.ProgressUpdate()
		s.editStatus(ctx, logger, job, s.texts.Textf(i18n.KeyStatusProgress, percent))
		return nil
	}
}

func (s *Service) openStatus(ctx context.Context, logger *slog.Logger, job *model.Job) {
	ref, err := s.chat.SendStatus(ctx, job.Request.ChatID, s.texts.Textf(i18n.KeyStatusStarting))
	if err != nil {
		logger.Warn("failed to send status message", "error", err)
		return
	}
	job.Status = ref
}

func (s *Service) editStatus(ctx context.Context, logger *slog.Logger, job *model.Job, text string) {
	if job.Status.IsZero() {
		return
	}
	if err := s.chat.EditStatus(ctx, job.Status, text); err != nil {
		logger.Debug("failed to edit status message", "error", err)
	}
}

// fail moves job to a failure state and tells the requester why
func (s *Service) fail(ctx context.Context, logger *slog.Logger, job *model.Job, state model.JobState, kind ErrorKind, cause error) error {
	jobErr := &JobError{Kind: kind, Err: cause}
	job.Err = jobErr
	s.transition(logger, job, state)

	key, withCause := kind.messageKey()
	text := s.texts.Textf(key)
	if withCause {
		text = s.texts.Textf(key, cause)
	}

	nctx, cancel := s.notifyContext(ctx)
	defer cancel()
	if !job.Status.IsZero() {
		if err := s.chat.EditStatus(nctx, job.Status, text); err == nil {
			return jobErr
		}
	}
	if _, err := s.chat.SendStatus(nctx, job.Request.ChatID, text); err != nil {
		logger.Warn("failed to report job failure", "error", err)
	}
	return jobErr
}

func (s *Service) transition(logger *slog.Logger, job *model.Job, to model.JobState) {
	from := job.State
	if err := job.TransitionTo(to); err != nil {
		logger.Error("dropping job transition", "error", err)
		return
	}
	logger.Debug("job transition", "from", from, "to", to)
	if s.onTransition != nil {
		s.onTransition(job, from, to)
	}
}

// notifyContext survives cancellation of the job so the requester still
// hears about a timeout or cancel
func (s *Service) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
}

func classifyRunError(err error) ErrorKind {
	switch {
	case errors.Is(err, process.ErrSpawn):
		return KindSpawnFailure
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	return KindRunner
}
