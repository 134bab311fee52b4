package download

import (
	"errors"
	"fmt"

	"github.com/ytget/yt-bot/internal/i18n"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free
	ErrQueueFull = errors.New("job queue is full")
	// ErrRejected is returned by Submit when the gate refuses the requester
	ErrRejected = errors.New("request rejected")
	// ErrClosed is returned by Submit after shutdown started
	ErrClosed = errors.New("dispatcher is closed")
	// ErrJobNotFound is returned by Cancel for unknown or finished jobs
	ErrJobNotFound = errors.New("job not found")
	// ErrArtifactMissing means the tool exited zero but left no file
	ErrArtifactMissing = errors.New("no artifact produced")
	// ErrNonZeroExit means the tool ran and failed
	ErrNonZeroExit = errors.New("extraction tool exited with non-zero status")
)

// ErrorKind classifies why a job failed
type ErrorKind string

const (
	KindGateRejected    ErrorKind = "gate_rejected"
	KindQueueFull       ErrorKind = "queue_full"
	KindWorkArea        ErrorKind = "work_area"
	KindCommand         ErrorKind = "command"
	KindSpawnFailure    ErrorKind = "spawn_failure"
	KindNonZeroExit     ErrorKind = "nonzero_exit"
	KindTimeout         ErrorKind = "timeout"
	KindCanceled        ErrorKind = "canceled"
	KindRunner          ErrorKind = "runner"
	KindArtifactMissing ErrorKind = "artifact_missing"
	KindDeliveryFailure ErrorKind = "delivery_failure"
	KindTooLarge        ErrorKind = "too_large"
	KindPanic           ErrorKind = "panic"
)

// JobError is the terminal error of a job
type JobError struct {
	Kind ErrorKind
	Err  error
}

func (e *JobError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a JobError anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr.Kind, true
	}
	return "", false
}

// messageKey maps a failure kind to the text shown to the requester.
// Kinds whose text embeds the cause report true.
func (k ErrorKind) messageKey() (string, bool) {
	switch k {
	case KindSpawnFailure:
		return i18n.KeyErrorSpawn, false
	case KindNonZeroExit, KindRunner:
		return i18n.KeyErrorTool, false
	case KindTimeout:
		return i18n.KeyErrorTimeout, false
	case KindCanceled:
		return i18n.KeyErrorCanceled, false
	case KindArtifactMissing:
		return i18n.KeyErrorNotFound, false
	case KindDeliveryFailure:
		return i18n.KeyErrorDelivery, true
	case KindTooLarge:
		return i18n.KeyErrorTooLarge, false
	case KindQueueFull:
		return i18n.KeyBusy, false
	case KindGateRejected:
		return i18n.KeyMaintenance, false
	}
	return i18n.KeyErrorGeneral, true
}
