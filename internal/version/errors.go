package version

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ErrorType classifies resolution failures so callers can choose
// presentation and retry behavior without string matching.
type ErrorType int

const (
	// ErrTypeNetwork is the generic fallback for network failures.
	ErrTypeNetwork ErrorType = iota
	// ErrTypeNotFound means the repository or release does not exist.
	ErrTypeNotFound
	// ErrTypeValidation means upstream data could not be interpreted as
	// versions (no parseable tags, constraint matched nothing).
	ErrTypeValidation
	// ErrTypeRateLimit means the API refused the request for quota.
	ErrTypeRateLimit
	// ErrTypeTimeout means the request ran out of time.
	ErrTypeTimeout
	// ErrTypeDNS means name resolution failed.
	ErrTypeDNS
	// ErrTypeConnection means the connection was refused or reset.
	ErrTypeConnection
	// ErrTypeTLS means certificate verification failed.
	ErrTypeTLS
)

// ResolverError is a classified version-resolution failure.
type ResolverError struct {
	Type    ErrorType
	Source  string // e.g. "github:cli/cli"
	Message string
	Err     error
}

func (e *ResolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("version %s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("version %s: %s", e.Source, e.Message)
}

func (e *ResolverError) Unwrap() error { return e.Err }

// Suggestion returns a next step for the user, empty when none applies.
func (e *ResolverError) Suggestion() string {
	switch e.Type {
	case ErrTypeRateLimit:
		return "Wait a few minutes, or set GITHUB_TOKEN for a higher limit"
	case ErrTypeTimeout, ErrTypeNetwork:
		return "Check your internet connection and try again"
	case ErrTypeDNS:
		return "Check your DNS settings and internet connection"
	case ErrTypeConnection:
		return "The service may be down or blocked by a proxy"
	case ErrTypeTLS:
		return "Check that your system clock and CA certificates are correct"
	case ErrTypeNotFound:
		return "Check the recipe's github_repo for a typo"
	default:
		return ""
	}
}

// RateLimitError reports an exhausted GitHub API quota with enough
// detail to tell the user when to retry and how to raise the limit.
type RateLimitError struct {
	Limit         int
	Remaining     int
	ResetTime     time.Time
	Authenticated bool
	Err           error
}

func (e *RateLimitError) Error() string {
	return "GitHub API rate limit exceeded"
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RetryAfter returns the time until the quota resets, never negative.
func (e *RateLimitError) RetryAfter() time.Duration {
	d := time.Until(e.ResetTime)
	if d < 0 {
		return 0
	}
	return d
}

// Suggestion returns actionable next steps for the user.
func (e *RateLimitError) Suggestion() string {
	minutes := int(e.RetryAfter().Minutes())
	if minutes < 1 {
		minutes = 1
	}
	s := fmt.Sprintf("Try again in %d minutes", minutes)
	if !e.Authenticated {
		s += "\nOr set GITHUB_TOKEN for higher limits (5000 requests/hour)"
	}
	return s
}

// ClassifyError maps an error onto the most specific ErrorType by
// unwrapping the standard library's network error chain.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return ErrTypeDNS
		}
		return ErrTypeConnection
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") || strings.Contains(msg, "tls") || strings.Contains(msg, "x509") {
			return ErrTypeTLS
		}
		return ClassifyError(urlErr.Err)
	}
	return ErrTypeNetwork
}

// wrapNetworkError builds a classified ResolverError around err.
func wrapNetworkError(err error, source, message string) *ResolverError {
	return &ResolverError{
		Type:    ClassifyError(err),
		Source:  source,
		Message: message,
		Err:     err,
	}
}
