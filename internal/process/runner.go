package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ytget/yt-bot/internal/model"
)

// Shell and I/O constants
const (
	DefaultShell     = "/bin/sh"
	ShellFlag        = "-c"
	DefaultTailBytes = 64 * 1024
	InitialLineBytes = 64 * 1024
	MaxLineBytes     = 1024 * 1024
	DefaultWaitDelay = 5 * time.Second
)

// Shell exit codes for a command that could not be executed
const (
	ExitNotExecutable = 126
	ExitNotFound      = 127
)

var (
	// ErrSpawn means the process never started
	ErrSpawn = errors.New("process could not be started")
	// ErrCallback means the line callback failed and the process was killed
	ErrCallback = errors.New("line callback failed")
	// ErrCanceled means the context ended before the process exited
	ErrCanceled = errors.New("process canceled")
)

// LineFunc receives one output line. Returning an error aborts the run.
type LineFunc func(line string) error

// Runner spawns commands through a shell
type Runner struct {
	shell     string
	tailBytes int
	waitDelay time.Duration
	env       []string
}

// NewRunner creates a runner using /bin/sh
func NewRunner() *Runner {
	return &Runner{
		shell:     DefaultShell,
		tailBytes: DefaultTailBytes,
		waitDelay: DefaultWaitDelay,
	}
}

// SetShell overrides the shell binary
func (r *Runner) SetShell(shell string) {
	r.shell = shell
}

// SetTailBytes sets how much trailing output is kept in the outcome
func (r *Runner) SetTailBytes(n int) {
	if n > 0 {
		r.tailBytes = n
	}
}

// SetEnv sets extra environment variables, in KEY=VALUE form, for spawned processes
func (r *Runner) SetEnv(env []string) {
	r.env = env
}

// Run executes command and blocks until the output stream closes and the
// process has exited. onLine is called synchronously, once per non-empty
// line, in output order. A nonzero exit is reported in the outcome with a
// nil error; spawn failures, callback failures and cancellation are errors.
// The shell exiting with 126 or 127 counts as a spawn failure.
func (r *Runner) Run(ctx context.Context, command string, onLine LineFunc) (model.ProcessOutcome, error) {
	var outcome model.ProcessOutcome
	if strings.TrimSpace(command) == "" {
		return outcome, fmt.Errorf("%w: empty command", ErrSpawn)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return outcome, fmt.Errorf("%w: failed to create pipe: %w", ErrSpawn, err)
	}
	defer pr.Close()

	cmd := exec.CommandContext(ctx, r.shell, ShellFlag, command)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = r.waitDelay
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		pw.Close()
		return outcome, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	// The child holds its own copy; ours must go so EOF arrives when it exits
	pw.Close()

	tail := newTailBuffer(r.tailBytes)
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, InitialLineBytes), MaxLineBytes)
	scanner.Split(ScanLines)

	var cbErr error
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tail.WriteLine(line)
		if cbErr != nil || onLine == nil {
			continue
		}
		if err := safeCall(onLine, line); err != nil {
			cbErr = err
			_ = killProcessGroup(cmd)
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		_ = killProcessGroup(cmd)
		_, _ = io.Copy(io.Discard, pr)
	}

	waitErr := cmd.Wait()
	outcome.ExitCode = exitCode(cmd, waitErr)
	outcome.Output = tail.String()

	switch {
	case cbErr != nil:
		return outcome, fmt.Errorf("%w: %w", ErrCallback, cbErr)
	case ctx.Err() != nil:
		return outcome, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	case scanErr != nil:
		return outcome, fmt.Errorf("failed to read process output: %w", scanErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return outcome, fmt.Errorf("failed to wait for process: %w", waitErr)
		}
		if outcome.ExitCode == ExitNotExecutable || outcome.ExitCode == ExitNotFound {
			return outcome, fmt.Errorf("%w: shell exit code %d", ErrSpawn, outcome.ExitCode)
		}
	}
	return outcome, nil
}

func safeCall(fn LineFunc, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(line)
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code != 0 {
			return code
		}
		return -1
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}
