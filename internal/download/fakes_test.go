package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ytget/yt-bot/internal/gate"
	"github.com/ytget/yt-bot/internal/model"
	"github.com/ytget/yt-bot/internal/process"
)

type chatEvent struct {
	op     string // send, edit, delete
	chatID int64
	ref    model.MessageRef
	text   string
}

type fakeChat struct {
	mu      sync.Mutex
	nextID  int
	events  []chatEvent
	sendErr error
	editErr error
}

func (c *fakeChat) SendStatus(_ context.Context, chatID int64, text string) (model.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return model.MessageRef{}, c.sendErr
	}
	c.nextID++
	ref := model.MessageRef{ChatID: chatID, MessageID: c.nextID}
	c.events = append(c.events, chatEvent{op: "send", chatID: chatID, ref: ref, text: text})
	return ref, nil
}

func (c *fakeChat) EditStatus(_ context.Context, ref model.MessageRef, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editErr != nil {
		return c.editErr
	}
	c.events = append(c.events, chatEvent{op: "edit", chatID: ref.ChatID, ref: ref, text: text})
	return nil
}

func (c *fakeChat) DeleteStatus(_ context.Context, ref model.MessageRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, chatEvent{op: "delete", chatID: ref.ChatID, ref: ref})
	return nil
}

func (c *fakeChat) SendText(_ context.Context, chatID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, chatEvent{op: "text", chatID: chatID, text: text})
	return nil
}

func (c *fakeChat) snapshot() []chatEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chatEvent(nil), c.events...)
}

func (c *fakeChat) texts(op string, chatID int64) []string {
	var out []string
	for _, e := range c.snapshot() {
		if e.op == op && (chatID == 0 || e.chatID == chatID) {
			out = append(out, e.text)
		}
	}
	return out
}

func (c *fakeChat) last(chatID int64) chatEvent {
	events := c.snapshot()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].chatID == chatID && events[i].op != "delete" {
			return events[i]
		}
	}
	return chatEvent{}
}

type delivered struct {
	chatID   int64
	artifact model.Artifact
	content  string
}

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []delivered
	err       error
	panicMsg  string
}

func (d *fakeDeliverer) DeliverArtifact(_ context.Context, chatID int64, artifact model.Artifact) (string, error) {
	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	content, readErr := os.ReadFile(artifact.Path)
	d.mu.Lock()
	defer d.mu.Unlock()
	if readErr != nil {
		return "", readErr
	}
	d.delivered = append(d.delivered, delivered{chatID: chatID, artifact: artifact, content: string(content)})
	if d.err != nil {
		return "", d.err
	}
	return "telegram", nil
}

func (d *fakeDeliverer) calls() []delivered {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivered(nil), d.delivered...)
}

type fakeStats struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (s *fakeStats) IncrementStat(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int{}
	}
	s.counts[key]++
	return s.err
}

func (s *fakeStats) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

// scriptBuilder returns a shell script instead of a yt-dlp invocation
type scriptBuilder struct {
	script func(target model.Target, dir string) string
	err    error
	calls  int
	mu     sync.Mutex
}

func (b *scriptBuilder) Build(target model.Target, dir string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	return b.script(target, dir), nil
}

func staticScript(format string) *scriptBuilder {
	return &scriptBuilder{script: func(_ model.Target, dir string) string {
		return fmt.Sprintf(format, dir)
	}}
}

type countingRunner struct {
	inner Runner
	calls int
}

func (r *countingRunner) Run(ctx context.Context, command string, onLine process.LineFunc) (model.ProcessOutcome, error) {
	r.calls++
	return r.inner.Run(ctx, command, onLine)
}

type fakeAdmitter struct {
	decision gate.Decision
}

func (a fakeAdmitter) Admit(context.Context, int64) gate.Decision {
	return a.decision
}

type fakeRecorder struct {
	mu        sync.Mutex
	started   int
	finished  map[model.JobState]int
	rejected  int
	progress  int
	delivered int
}

func (r *fakeRecorder) JobStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *fakeRecorder) JobFinished(state model.JobState, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = map[model.JobState]int{}
	}
	r.finished[state]++
}

func (r *fakeRecorder) JobRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *fakeRecorder) SetQueueDepth(int) {}

func (r *fakeRecorder) ProgressUpdate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress++
}

func (r *fakeRecorder) Delivered(string, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered++
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
