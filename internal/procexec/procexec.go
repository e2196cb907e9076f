// Package procexec runs planned install commands. It is the only part
// of the engine that touches the live system: everything upstream
// computes plans over read-only data, and everything downstream only
// reads the captured output. A timeout is not an error here; it becomes
// a terminal Output carrying marker text the handler matcher classifies
// like any other failure.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tsukumogami/naosu/internal/config"
	"github.com/tsukumogami/naosu/internal/log"
)

// Request is one command to run.
type Request struct {
	// Command is the shell command, already fully rendered.
	Command string
	// NeedsSudo asks for elevation. The runner prefixes sudo -n unless
	// the process is already root; -n keeps an unauthenticated sudo
	// from hanging on a password prompt.
	NeedsSudo bool
	// Timeout bounds execution. Zero falls back to the configured
	// default.
	Timeout time.Duration
}

// Output is the captured result of a run. A non-zero exit or a timeout
// is still a valid Output; Runner errors are reserved for failures to
// start the command at all.
type Output struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timed_out"`
}

// Failed reports whether the command did not complete successfully.
func (o Output) Failed() bool { return o.ExitCode != 0 || o.TimedOut }

// Combined joins stderr and stdout for pattern matching. Stderr comes
// first: package managers put the diagnostic there and the progress
// noise on stdout.
func (o Output) Combined() string {
	switch {
	case o.Stderr == "":
		return o.Stdout
	case o.Stdout == "":
		return o.Stderr
	default:
		return o.Stderr + "\n" + o.Stdout
	}
}

// Runner executes commands. The engine depends on this interface so
// tests and dry runs can substitute a fake without touching the system.
type Runner interface {
	Execute(ctx context.Context, req Request) (Output, error)
}

// ShellRunner runs requests through sh -c on the live system.
type ShellRunner struct {
	logger log.Logger
	isRoot func() bool
}

// NewShellRunner builds a runner logging through logger. A nil logger
// is replaced with a noop.
func NewShellRunner(logger log.Logger) *ShellRunner {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &ShellRunner{
		logger: logger,
		isRoot: func() bool { return os.Geteuid() == 0 },
	}
}

// Execute runs the request and captures its output. The command runs
// under sh -c so rendered pipelines and redirects work unmodified.
func (r *ShellRunner) Execute(ctx context.Context, req Request) (Output, error) {
	if strings.TrimSpace(req.Command) == "" {
		return Output{}, fmt.Errorf("procexec: empty command")
	}

	command := sudoWrap(req.Command, req.NeedsSudo, r.isRoot())

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = config.GetExecTimeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logger.Debug("executing command", "command", command, "timeout", timeout.String())

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		out.TimedOut = true
		out.ExitCode = -1
		marker := fmt.Sprintf("command timed out after %s", timeout)
		if out.Stderr != "" {
			marker = out.Stderr + "\n" + marker
		}
		out.Stderr = marker
		r.logger.Warn("command timed out", "command", command, "timeout", timeout.String())
		return out, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			r.logger.Debug("command failed", "command", command, "exit_code", out.ExitCode)
			return out, nil
		}
		// The command never started: sh missing, fork failure. This is
		// an environment problem, not install output worth matching.
		return out, fmt.Errorf("procexec: starting %q: %w", command, err)
	}

	r.logger.Debug("command succeeded", "command", command)
	return out, nil
}

// sudoWrap prefixes a command for elevation when the invoking user
// needs it. Root runs commands unmodified, and commands that already
// start with sudo are left alone.
func sudoWrap(command string, needsSudo, isRoot bool) string {
	if !needsSudo || isRoot || strings.HasPrefix(command, "sudo ") {
		return command
	}
	return "sudo -n " + command
}
