// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/engine"
	"github.com/tsukumogami/naosu/internal/version"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	ToolName string // The tool being operated on (for suggestions)
}

// Fprint writes a formatted error message to w. Convenience wrapper for
// command-level error reporting.
func Fprint(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, "Error:", Format(err, nil))
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	// Structured errors carry their own classification; check them before
	// any string matching.
	var rateErr *version.RateLimitError
	if errors.As(err, &rateErr) {
		return formatStructuredRateLimit(rateErr)
	}

	var resolverErr *version.ResolverError
	if errors.As(err, &resolverErr) {
		return formatResolverError(resolverErr, ctx)
	}

	var notFoundErr *catalog.NotFoundError
	if errors.As(err, &notFoundErr) {
		return formatRecipeNotFound(notFoundErr)
	}

	var noneErr *availability.NoneAvailableError
	if errors.As(err, &noneErr) {
		return formatNoneAvailable(noneErr)
	}

	var unhandledErr *engine.UnhandledFailureError
	if errors.As(err, &unhandledErr) {
		return formatUnhandledFailure(unhandledErr)
	}

	var prereqErr *chain.UnresolvedPrerequisiteError
	if errors.As(err, &prereqErr) {
		return formatUnresolvedPrerequisite(prereqErr)
	}

	if errors.Is(err, chain.ErrCycle) || errors.Is(err, chain.ErrTooDeep) {
		return formatChainError(err)
	}

	// Check for rate limit errors (string matching for unstructured errors)
	if isRateLimitError(errMsg) {
		return formatRateLimitError(errMsg, ctx)
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr, ctx)
	}

	// Check for connection-related errors by message
	if isNetworkError(errMsg) {
		return formatGenericNetworkError(errMsg, ctx)
	}

	// Check for "not found" errors
	if isNotFoundError(errMsg) {
		return formatNotFoundError(errMsg, ctx)
	}

	// Check for permission errors
	if isPermissionError(errMsg) {
		return formatPermissionError(errMsg, ctx)
	}

	// Return original error for unrecognized types
	return errMsg
}

func formatResolverError(err *version.ResolverError, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	switch err.Type {
	case version.ErrTypeRateLimit:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Too many requests to the GitHub API\n")
		sb.WriteString("  - Unauthenticated requests have lower limits\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Set GITHUB_TOKEN to increase the rate limit\n")
		sb.WriteString("  - Wait a few minutes before retrying\n")

	case version.ErrTypeNetwork, version.ErrTypeConnection:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - Service temporarily unavailable\n")
		sb.WriteString("  - Firewall or proxy blocking the connection\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check your internet connection\n")
		sb.WriteString("  - Try again in a few minutes\n")

	case version.ErrTypeTimeout:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check your internet connection\n")
		sb.WriteString("  - Raise NAOSU_API_TIMEOUT if your network is slow\n")

	case version.ErrTypeDNS:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - DNS resolution failure\n")
		sb.WriteString("  - No internet connection\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check your DNS settings and internet connection\n")

	case version.ErrTypeTLS:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Certificate verification failed\n")
		sb.WriteString("  - System clock is wrong\n")
		sb.WriteString("  - Proxy intercepting TLS traffic\n")

		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Check that your system clock and CA certificates are correct\n")

	case version.ErrTypeNotFound:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The repository or release does not exist\n")
		sb.WriteString("  - The recipe's github_repo has a typo\n")

		sb.WriteString("\nSuggestions:\n")
		if ctx != nil && ctx.ToolName != "" {
			sb.WriteString(fmt.Sprintf("  - Run 'naosu info %s' to inspect the recipe\n", ctx.ToolName))
		} else {
			sb.WriteString("  - Run 'naosu info <tool>' to inspect the recipe\n")
		}
		sb.WriteString("  - Check the repository on github.com\n")

	case version.ErrTypeValidation:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The repository publishes no parseable version tags\n")
		sb.WriteString("  - The recipe's version constraint matches nothing\n")

		sb.WriteString("\nSuggestions:\n")
		if ctx != nil && ctx.ToolName != "" {
			sb.WriteString(fmt.Sprintf("  - Run 'naosu info %s' to inspect the recipe\n", ctx.ToolName))
		} else {
			sb.WriteString("  - Run 'naosu info <tool>' to inspect the recipe\n")
		}
		sb.WriteString("  - Loosen or remove the constraint in the recipe\n")

	default:
		// Generic suggestions for other resolver errors
		sb.WriteString("\nSuggestions:\n")
		sb.WriteString("  - Try again in a few minutes\n")
	}

	return sb.String()
}

func formatStructuredRateLimit(err *version.RateLimitError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Too many requests to the GitHub API\n")
	if !err.Authenticated {
		sb.WriteString("  - Unauthenticated requests are limited to 60 per hour\n")
	}

	sb.WriteString("\nSuggestions:\n")
	minutes := int(err.RetryAfter().Minutes())
	if minutes < 1 {
		minutes = 1
	}
	sb.WriteString(fmt.Sprintf("  - Try again in %d minutes\n", minutes))
	if !err.Authenticated {
		sb.WriteString("  - Set GITHUB_TOKEN for higher limits (5000 requests/hour)\n")
	}

	return sb.String()
}

func formatRecipeNotFound(err *catalog.NotFoundError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - No recipe with that name in the catalog\n")
	sb.WriteString("  - Typo in the tool name\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check the spelling of the tool name\n")
	sb.WriteString("  - Run 'naosu recipes' to see available recipes\n")
	sb.WriteString(fmt.Sprintf("  - Add a recipe for %q under $NAOSU_HOME/catalog\n", err.Tool))

	return sb.String()
}

func formatNoneAvailable(err *availability.NoneAvailableError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - The per-method reasons above explain what this system lacks\n")
	sb.WriteString("  - Run 'naosu doctor' to review what this machine provides\n")

	return sb.String()
}

func formatUnhandledFailure(err *engine.UnhandledFailureError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The failure output matches no known pattern\n")
	sb.WriteString("  - A new failure mode of the package manager or installer\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Read the captured output above; it usually names the problem\n")
	sb.WriteString(fmt.Sprintf("  - Add a [[handlers]] entry for %q under $NAOSU_HOME/catalog\n", err.Tool))

	return sb.String()
}

func formatUnresolvedPrerequisite(err *chain.UnresolvedPrerequisiteError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The recipe requires a binary no catalog recipe provides\n")
	sb.WriteString("  - Typo in the recipe's requires.binaries list\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString(fmt.Sprintf("  - Add a recipe whose binary is %q under $NAOSU_HOME/catalog\n", err.Binary))
	sb.WriteString(fmt.Sprintf("  - Install %q yourself and rerun\n", err.Binary))

	return sb.String()
}

func formatChainError(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if errors.Is(err, chain.ErrCycle) {
		sb.WriteString("  - Two recipes name each other as prerequisites\n")
	} else {
		sb.WriteString("  - The prerequisite chain exceeds the depth limit\n")
	}

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check the requires sections of the recipes involved\n")
	if errors.Is(err, chain.ErrTooDeep) {
		sb.WriteString("  - Raise NAOSU_MAX_CHAIN_DEPTH if the chain is legitimate\n")
	}

	return sb.String()
}

func formatRateLimitError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Too many requests to the API\n")
	sb.WriteString("  - Unauthenticated requests have lower limits\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Set GITHUB_TOKEN environment variable to increase rate limit\n")
	sb.WriteString("  - Wait a few minutes before retrying\n")
	if ctx != nil && ctx.ToolName != "" {
		sb.WriteString(fmt.Sprintf("  - Use 'naosu plan %s' to preview without calling the API\n", ctx.ToolName))
	}

	return sb.String()
}

func formatNetworkError(err net.Error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}
	sb.WriteString("  - Firewall or proxy blocking the connection\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	if err.Timeout() {
		sb.WriteString("  - Check if you're behind a slow proxy\n")
	}

	return sb.String()
}

func formatGenericNetworkError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Network connectivity issue\n")
	sb.WriteString("  - DNS resolution failure\n")
	sb.WriteString("  - Service temporarily unavailable\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")

	return sb.String()
}

func formatNotFoundError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Recipe does not exist in the catalog\n")
	sb.WriteString("  - Typo in the tool name\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check the spelling of the tool name\n")
	sb.WriteString("  - Run 'naosu recipes' to see available recipes\n")
	if ctx != nil && ctx.ToolName != "" {
		sb.WriteString(fmt.Sprintf("  - Add a recipe for %q under $NAOSU_HOME/catalog\n", ctx.ToolName))
	}

	return sb.String()
}

func formatPermissionError(errMsg string, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Insufficient permissions on $NAOSU_HOME directory\n")
	sb.WriteString("  - File or directory owned by different user\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check permissions on ~/.naosu directory\n")
	sb.WriteString("  - Ensure you own the naosu directories: ls -la ~/.naosu\n")

	return sb.String()
}

// isRateLimitError checks if the error message indicates a rate limit
func isRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "too many requests")
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "i/o timeout")
}

// isNotFoundError checks if the error message indicates something not found
func isNotFoundError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") ||
		strings.Contains(lower, "404") ||
		strings.Contains(lower, "does not exist")
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
