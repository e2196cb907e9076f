package errmsg

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/engine"
	"github.com/tsukumogami/naosu/internal/version"
)

func TestFormat_NilError(t *testing.T) {
	result := Format(nil, nil)
	if result != "" {
		t.Errorf("expected empty string for nil error, got %q", result)
	}
}

func TestFormat_GenericError(t *testing.T) {
	err := errors.New("something went wrong")
	result := Format(err, nil)
	if result != "something went wrong" {
		t.Errorf("expected original error message, got %q", result)
	}
}

func TestFormat_ResolverError_Network(t *testing.T) {
	err := &version.ResolverError{
		Type:    version.ErrTypeNetwork,
		Source:  "github:BurntSushi/ripgrep",
		Message: "connection failed",
	}

	result := Format(err, nil)

	checks := []string{
		"connection failed",
		"Possible causes:",
		"Network connectivity issue",
		"Suggestions:",
		"Check your internet connection",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_ResolverError_NotFound(t *testing.T) {
	err := &version.ResolverError{
		Type:    version.ErrTypeNotFound,
		Source:  "github:ghost/ghost",
		Message: "repository not found",
	}

	ctx := &ErrorContext{ToolName: "nodejs"}
	result := Format(err, ctx)

	checks := []string{
		"repository not found",
		"Possible causes:",
		"does not exist",
		"Suggestions:",
		"naosu info nodejs",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_ResolverError_RateLimit(t *testing.T) {
	err := &version.ResolverError{
		Type:    version.ErrTypeRateLimit,
		Source:  "github:jqlang/jq",
		Message: "quota exhausted",
	}

	result := Format(err, nil)

	for _, check := range []string{"GITHUB_TOKEN", "Wait a few minutes"} {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_StructuredRateLimit(t *testing.T) {
	err := &version.RateLimitError{
		Limit:         60,
		Remaining:     0,
		ResetTime:     time.Now().Add(10 * time.Minute),
		Authenticated: false,
	}

	result := Format(err, nil)

	checks := []string{
		"rate limit exceeded",
		"Possible causes:",
		"60 per hour",
		"Suggestions:",
		"Try again in",
		"GITHUB_TOKEN",
		"5000 requests/hour",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_RecipeNotFound(t *testing.T) {
	err := &catalog.NotFoundError{Tool: "widget"}
	result := Format(err, nil)

	checks := []string{
		`"widget"`,
		"Possible causes:",
		"Typo",
		"Suggestions:",
		"naosu recipes",
		"$NAOSU_HOME/catalog",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_NoneAvailable(t *testing.T) {
	err := &availability.NoneAvailableError{
		Tool: "widget",
		Statuses: []availability.Status{
			{Method: "apt", State: availability.StateImpossible, Reason: "no apt on this system"},
			{Method: "brew", State: availability.StateImpossible, Reason: "filesystem is read-only"},
		},
	}

	result := Format(err, nil)

	checks := []string{
		"cannot be installed",
		"no apt on this system",
		"filesystem is read-only",
		"Suggestions:",
		"naosu doctor",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_UnhandledFailure(t *testing.T) {
	err := &engine.UnhandledFailureError{
		Tool:   "widget",
		Method: "apt",
		Output: "something nobody has seen before",
	}

	result := Format(err, nil)

	checks := []string{
		"no handler matched",
		"something nobody has seen before",
		"Suggestions:",
		"[[handlers]]",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_UnresolvedPrerequisite(t *testing.T) {
	err := &chain.UnresolvedPrerequisiteError{Tool: "widget", Binary: "frob"}
	result := Format(err, nil)

	checks := []string{
		`"frob"`,
		"Possible causes:",
		"requires.binaries",
		"Suggestions:",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_ChainErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		err := fmt.Errorf("expanding option: %w", chain.ErrCycle)
		result := Format(err, nil)
		if !strings.Contains(result, "name each other") {
			t.Errorf("expected cycle explanation, got:\n%s", result)
		}
	})

	t.Run("too deep", func(t *testing.T) {
		err := fmt.Errorf("expanding option: %w", chain.ErrTooDeep)
		result := Format(err, nil)
		if !strings.Contains(result, "NAOSU_MAX_CHAIN_DEPTH") {
			t.Errorf("expected depth suggestion, got:\n%s", result)
		}
	})
}

func TestFormat_RateLimitError(t *testing.T) {
	err := errors.New("GitHub API rate limit exceeded")
	ctx := &ErrorContext{ToolName: "kubectl"}
	result := Format(err, ctx)

	checks := []string{
		"rate limit",
		"Possible causes:",
		"Too many requests",
		"Suggestions:",
		"GITHUB_TOKEN",
		"naosu plan kubectl",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_NetworkError(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	result := Format(err, nil)

	checks := []string{
		"connection refused",
		"Possible causes:",
		"Network connectivity issue",
		"Suggestions:",
		"Check your internet connection",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_NotFoundError(t *testing.T) {
	err := errors.New("recipe not found in catalog: nonexistent-tool")
	ctx := &ErrorContext{ToolName: "nonexistent-tool"}
	result := Format(err, ctx)

	checks := []string{
		"not found",
		"Possible causes:",
		"Recipe does not exist",
		"Typo",
		"Suggestions:",
		"naosu recipes",
		`"nonexistent-tool"`,
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_PermissionError(t *testing.T) {
	err := errors.New("open /home/user/.naosu/catalog: permission denied")
	result := Format(err, nil)

	checks := []string{
		"permission denied",
		"Possible causes:",
		"Insufficient permissions",
		"Suggestions:",
		"~/.naosu",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg       string
	timeout   bool
	temporary bool
}

func (e mockNetError) Error() string   { return e.msg }
func (e mockNetError) Timeout() bool   { return e.timeout }
func (e mockNetError) Temporary() bool { return e.temporary }

// Ensure mockNetError implements net.Error
var _ net.Error = mockNetError{}

func TestFormat_NetError_Timeout(t *testing.T) {
	err := mockNetError{
		msg:     "i/o timeout",
		timeout: true,
	}
	result := Format(err, nil)

	checks := []string{
		"i/o timeout",
		"Possible causes:",
		"Request timed out",
		"Suggestions:",
		"slow proxy",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, errors.New("something went wrong"))
	got := buf.String()
	if !strings.HasPrefix(got, "Error: ") || !strings.Contains(got, "something went wrong") {
		t.Errorf("Fprint output = %q", got)
	}

	buf.Reset()
	Fprint(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("Fprint(nil) wrote %q, want nothing", buf.String())
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"GitHub API rate limit exceeded", true},
		{"rate-limit: too many requests", true},
		{"Too many requests to the server", true},
		{"connection failed", false},
		{"file not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isRateLimitError(tt.msg); got != tt.expected {
				t.Errorf("isRateLimitError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"dial tcp: connection refused", true},
		{"connection reset by peer", true},
		{"no such host", true},
		{"i/o timeout", true},
		{"file not found", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isNetworkError(tt.msg); got != tt.expected {
				t.Errorf("isNetworkError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"recipe not found", true},
		{"returned 404", true},
		{"does not exist in catalog", true},
		{"connection failed", false},
		{"rate limit exceeded", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isNotFoundError(tt.msg); got != tt.expected {
				t.Errorf("isNotFoundError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"permission denied", true},
		{"access denied", true},
		{"operation not permitted", true},
		{"file not found", false},
		{"connection refused", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isPermissionError(tt.msg); got != tt.expected {
				t.Errorf("isPermissionError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}
