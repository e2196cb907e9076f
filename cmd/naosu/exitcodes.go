package main

import (
	"errors"
	"os"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/engine"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitNotFound indicates the catalog has no recipe for the tool
	ExitNotFound = 3

	// ExitImpossible indicates no install method works on this system
	ExitImpossible = 4

	// ExitLocked indicates the selected method needs a prerequisite first
	ExitLocked = 5

	// ExitExecFailed indicates an executed install command failed
	ExitExecFailed = 6

	// ExitUnhandled indicates no handler matched a captured failure
	ExitUnhandled = 7

	// ExitConfig indicates a broken recipe, chain, or configuration
	ExitConfig = 8
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}

// exitCodeFor maps an error from the resolution stack to an exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var notFound *catalog.NotFoundError
	if errors.As(err, &notFound) {
		return ExitNotFound
	}
	var unknownMethod *catalog.UnknownMethodError
	if errors.As(err, &unknownMethod) {
		return ExitUsage
	}
	var none *availability.NoneAvailableError
	if errors.As(err, &none) {
		return ExitImpossible
	}
	var unresolved *chain.UnresolvedPrerequisiteError
	if errors.As(err, &unresolved) {
		return ExitImpossible
	}
	var unhandled *engine.UnhandledFailureError
	if errors.As(err, &unhandled) {
		return ExitUnhandled
	}
	var confErr *catalog.ConfigurationError
	if errors.As(err, &confErr) {
		return ExitConfig
	}
	var sigErr *catalog.SignatureError
	if errors.As(err, &sigErr) {
		return ExitConfig
	}
	if errors.Is(err, chain.ErrCycle) || errors.Is(err, chain.ErrTooDeep) {
		return ExitConfig
	}
	return ExitGeneral
}
