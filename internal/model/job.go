package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MediaKind is the artifact flavour a requester asked for
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Target sources
const (
	VideoURLTemplate = "https://www.youtube.com/watch?v=%s"
	SearchPrefix     = "ytsearch1:"
)

// NoProgress is the sentinel for a job that has not reported any percentage yet
const NoProgress = -1

// ParseMediaKind converts callback data into a MediaKind
func ParseMediaKind(s string) (MediaKind, bool) {
	switch MediaKind(strings.ToLower(strings.TrimSpace(s))) {
	case MediaVideo:
		return MediaVideo, true
	case MediaAudio:
		return MediaAudio, true
	}
	return "", false
}

// ContentType returns the MIME type used when uploading the artifact
func (k MediaKind) ContentType() string {
	if k == MediaAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}

// Target describes what to download: a resolved video id or a free-text query
type Target struct {
	VideoID string
	Query   string
	Kind    MediaKind
}

// IsSearch reports whether the target is a free-text query
func (t Target) IsSearch() bool {
	return t.VideoID == "" && t.Query != ""
}

// Source returns the string handed to the extraction tool
func (t Target) Source() string {
	if t.IsSearch() {
		return SearchPrefix + t.Query
	}
	return fmt.Sprintf(VideoURLTemplate, t.VideoID)
}

// Validate checks that exactly one source is set and the kind is known
func (t Target) Validate() error {
	if _, ok := ParseMediaKind(string(t.Kind)); !ok {
		return fmt.Errorf("unknown media kind %q", t.Kind)
	}
	if t.VideoID == "" && strings.TrimSpace(t.Query) == "" {
		return fmt.Errorf("target has neither video id nor query")
	}
	if t.VideoID != "" && t.Query != "" {
		return fmt.Errorf("target has both video id and query")
	}
	return nil
}

// Requester identifies the chat user behind a request
type Requester struct {
	ID        int64
	FirstName string
	Username  string
}

// Request is an immutable download request
type Request struct {
	Requester Requester
	ChatID    int64
	Target    Target
	CreatedAt time.Time
}

// NewRequest creates a request stamped with the current time
func NewRequest(requester Requester, chatID int64, target Target) Request {
	return Request{
		Requester: requester,
		ChatID:    chatID,
		Target:    target,
		CreatedAt: time.Now(),
	}
}

// MessageRef points at a chat message owned by the chat transport
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the reference points nowhere
func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// ProcessOutcome is the result of one extraction process run
type ProcessOutcome struct {
	ExitCode int
	Output   string // combined stdout/stderr tail
}

// Success reports a zero exit status
func (o ProcessOutcome) Success() bool {
	return o.ExitCode == 0
}

// Artifact is the file produced by a successful run
type Artifact struct {
	Path string
	Kind MediaKind
	Size int64
}

// Name returns the file name of the artifact
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// Job is one end-to-end unit of work. It is mutated only by the worker that owns it.
type Job struct {
	ID          string
	Request     Request
	Dir         string
	Status      MessageRef
	State       JobState
	LastPercent int
	Outcome     *ProcessOutcome
	Artifact    *Artifact
	Err         error
	CreatedAt   time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewJob creates an admitted job for the request
func NewJob(id string, req Request) *Job {
	return &Job{
		ID:          id,
		Request:     req,
		State:       JobStateAdmitted,
		LastPercent: NoProgress,
		CreatedAt:   time.Now(),
	}
}

// Duration returns how long the job ran, zero if it never started
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	end := j.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(j.StartedAt)
}

// TransitionTo moves the job to state to. The job is left unchanged when
// the edge is not allowed.
func (j *Job) TransitionTo(to JobState) error {
	if !CanTransition(j.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, to)
	}
	j.State = to
	return nil
}

// GetDisplayTitle returns the artifact name, the query, or the video id in order of preference
func (j *Job) GetDisplayTitle() string {
	if j.Artifact != nil && j.Artifact.Path != "" {
		name := j.Artifact.Name()
		if idx := strings.LastIndex(name, "."); idx > 0 {
			name = name[:idx]
		}
		return name
	}
	if j.Request.Target.IsSearch() {
		return j.Request.Target.Query
	}
	return j.Request.Target.VideoID
}

// JobSnapshot is a read-only copy of a job's externally visible fields
type JobSnapshot struct {
	ID        string
	UserID    int64
	ChatID    int64
	Target    Target
	State     JobState
	CreatedAt time.Time
}
