package catalog

import (
	"fmt"
	"strings"
)

// ValidationError describes a single problem found while validating a
// recipe.
type ValidationError struct {
	Recipe  string
	Field   string
	Message string
}

func (e ValidationError) String() string {
	if e.Recipe == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Recipe, e.Field, e.Message)
}

// ConfigurationError aggregates everything wrong with a catalog source.
// It is returned at load time so a broken recipe never reaches
// resolution. Configuration problems are the operator's to fix, never
// the engine's to work around.
type ConfigurationError struct {
	Source   string
	Problems []ValidationError
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid catalog (%s): %s", e.Source, e.Problems[0])
	}
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = "  - " + p.String()
	}
	return fmt.Sprintf("invalid catalog (%s): %d problems:\n%s",
		e.Source, len(e.Problems), strings.Join(lines, "\n"))
}

// NotFoundError reports a tool the catalog has no recipe for.
type NotFoundError struct {
	Tool string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no recipe for tool %q", e.Tool)
}

// UnknownMethodError reports a method name a recipe does not declare.
type UnknownMethodError struct {
	Tool   string
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("tool %q has no method %q", e.Tool, e.Method)
}
