package download

import (
	"context"
	"time"

	"github.com/ytget/yt-bot/internal/gate"
	"github.com/ytget/yt-bot/internal/model"
	"github.com/ytget/yt-bot/internal/platform"
	"github.com/ytget/yt-bot/internal/process"
)

// Chat is the part of the chat transport the pipeline needs
type Chat interface {
	SendStatus(ctx context.Context, chatID int64, text string) (model.MessageRef, error)
	EditStatus(ctx context.Context, ref model.MessageRef, text string) error
	DeleteStatus(ctx context.Context, ref model.MessageRef) error
}

// Deliverer transfers a finished artifact to the requester. It returns the
// method used, for metrics.
type Deliverer interface {
	DeliverArtifact(ctx context.Context, chatID int64, artifact model.Artifact) (string, error)
}

// Runner executes one shell command, streaming output lines
type Runner interface {
	Run(ctx context.Context, command string, onLine process.LineFunc) (model.ProcessOutcome, error)
}

// WorkAreas hands out one isolated directory per job
type WorkAreas interface {
	Allocate(jobID string) (*platform.WorkArea, error)
}

// CommandBuilder turns a target into the extraction command
type CommandBuilder interface {
	Build(target model.Target, outputDir string) (string, error)
}

// StatStore records counters
type StatStore interface {
	IncrementStat(ctx context.Context, key string) error
}

// Admitter decides whether a requester may start a job
type Admitter interface {
	Admit(ctx context.Context, userID int64) gate.Decision
}

// Translator renders user-facing texts
type Translator interface {
	Textf(key string, args ...any) string
}

// Notifier sends standalone replies, such as rejection notices
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Recorder receives pipeline metrics
type Recorder interface {
	JobStarted()
	JobFinished(state model.JobState, d time.Duration)
	JobRejected()
	SetQueueDepth(n int)
	ProgressUpdate()
	Delivered(method string, size int64)
}

// TransitionFunc observes job state changes on the worker goroutine
type TransitionFunc func(job *model.Job, from, to model.JobState)

type nopRecorder struct{}

func (nopRecorder) JobStarted() {}
func (nopRecorder) JobFinished(model.JobState, time.Duration) {}
func (nopRecorder) JobRejected() {}
func (nopRecorder) SetQueueDepth(int) {}
func (nopRecorder) ProgressUpdate() {}
func (nopRecorder) Delivered(string, int64) {}
