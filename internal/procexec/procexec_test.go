package procexec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tsukumogami/naosu/internal/log"
)

func testRunner() *ShellRunner {
	r := NewShellRunner(log.NewNoop())
	// Keep sudo out of the loop regardless of who runs the tests.
	r.isRoot = func() bool { return true }
	return r
}

func TestExecuteCapturesOutput(t *testing.T) {
	r := testRunner()

	out, err := r.Execute(context.Background(), Request{Command: "echo hello; echo oops >&2"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
	if got := strings.TrimSpace(out.Stdout); got != "hello" {
		t.Errorf("Stdout = %q, want %q", got, "hello")
	}
	if got := strings.TrimSpace(out.Stderr); got != "oops" {
		t.Errorf("Stderr = %q, want %q", got, "oops")
	}
	if out.Failed() {
		t.Error("Failed() = true for a zero exit")
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	r := testRunner()

	out, err := r.Execute(context.Background(), Request{Command: "echo broken >&2; exit 3"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", out.ExitCode)
	}
	if !out.Failed() {
		t.Error("Failed() = false for exit 3")
	}
	if !strings.Contains(out.Stderr, "broken") {
		t.Errorf("Stderr = %q, want the diagnostic text", out.Stderr)
	}
}

func TestExecuteTimeout(t *testing.T) {
	r := testRunner()

	start := time.Now()
	out, err := r.Execute(context.Background(), Request{
		Command: "sleep 10",
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout did not kill the command (took %s)", elapsed)
	}
	if !out.TimedOut {
		t.Error("TimedOut = false")
	}
	if !out.Failed() {
		t.Error("Failed() = false for a timeout")
	}
	// The marker text must carry the signature the infrastructure
	// handler table matches on.
	if !strings.Contains(out.Stderr, "timed out after") {
		t.Errorf("Stderr = %q, want the timeout marker", out.Stderr)
	}
}

func TestExecuteEmptyCommand(t *testing.T) {
	r := testRunner()
	if _, err := r.Execute(context.Background(), Request{Command: "   "}); err == nil {
		t.Fatal("Execute accepted an empty command")
	}
}

func TestSudoWrap(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		needsSudo bool
		isRoot    bool
		want      string
	}{
		{"no elevation needed", "apt-get update", false, false, "apt-get update"},
		{"elevation as user", "apt-get update", true, false, "sudo -n apt-get update"},
		{"elevation as root", "apt-get update", true, true, "apt-get update"},
		{"already prefixed", "sudo apt-get update", true, false, "sudo apt-get update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sudoWrap(tt.command, tt.needsSudo, tt.isRoot); got != tt.want {
				t.Errorf("sudoWrap(%q, %v, %v) = %q, want %q",
					tt.command, tt.needsSudo, tt.isRoot, got, tt.want)
			}
		})
	}
}

func TestCombinedPutsStderrFirst(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		want string
	}{
		{"both streams", Output{Stdout: "progress", Stderr: "E: failure"}, "E: failure\nprogress"},
		{"stderr only", Output{Stderr: "E: failure"}, "E: failure"},
		{"stdout only", Output{Stdout: "progress"}, "progress"},
		{"empty", Output{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.out.Combined(); got != tt.want {
				t.Errorf("Combined() = %q, want %q", got, tt.want)
			}
		})
	}
}
