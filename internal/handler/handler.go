// Package handler maps failed install command output to remediation
// options. Handlers live in four layers consulted from most to least
// specific: tool-specific entries from recipes, ecosystem family tables
// (python, node, rust, go, ruby), method family tables (apt, dnf, pacman,
// apk, zypper, brew, snap, script, binary), and a final infrastructure
// layer that classifies environment failures regardless of method.
package handler

import (
	"fmt"
	"regexp"
	"strings"
)

// Layer identifies which tier of the registry an entry belongs to.
// Higher values are consulted first.
type Layer int

const (
	LayerInfra Layer = iota
	LayerMethodFamily
	LayerEcosystem
	LayerToolSpecific
)

func (l Layer) String() string {
	switch l {
	case LayerToolSpecific:
		return "tool"
	case LayerEcosystem:
		return "ecosystem"
	case LayerMethodFamily:
		return "family"
	case LayerInfra:
		return "infra"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Category classifies the root cause a handler diagnoses.
type Category string

const (
	CategoryEnvironment   Category = "environment"
	CategoryDependency    Category = "dependency"
	CategoryPermissions   Category = "permissions"
	CategoryNetwork       Category = "network"
	CategoryCompiler      Category = "compiler"
	CategoryCompatibility Category = "compatibility"
	CategoryConfiguration Category = "configuration"
	CategoryResources     Category = "resources"
)

// Categories lists every valid handler category.
var Categories = []Category{
	CategoryEnvironment,
	CategoryDependency,
	CategoryPermissions,
	CategoryNetwork,
	CategoryCompiler,
	CategoryCompatibility,
	CategoryConfiguration,
	CategoryResources,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Strategy names the kind of remediation an option proposes.
type Strategy string

const (
	// StrategyInstallDependency installs another catalog tool first,
	// then retries the original command.
	StrategyInstallDependency Strategy = "install_dependency"
	// StrategyRetryModified retries with an adjusted command.
	StrategyRetryModified Strategy = "retry_with_modifier"
	// StrategyRetryElevated retries the same command under sudo.
	StrategyRetryElevated Strategy = "retry_with_elevation"
	// StrategyFixEnvironment sets environment variables and retries.
	StrategyFixEnvironment Strategy = "fix_environment"
	// StrategyAddRepository enables a package source and retries.
	StrategyAddRepository Strategy = "add_repository"
	// StrategyManual tells the user what to do when no command can.
	StrategyManual Strategy = "manual_instruction"
)

// Strategies lists every valid option strategy.
var Strategies = []Strategy{
	StrategyInstallDependency,
	StrategyRetryModified,
	StrategyRetryElevated,
	StrategyFixEnvironment,
	StrategyAddRepository,
	StrategyManual,
}

// ValidStrategy reports whether s is a known strategy.
func ValidStrategy(s Strategy) bool {
	for _, k := range Strategies {
		if s == k {
			return true
		}
	}
	return false
}

// Option is a single remediation an entry proposes. Exactly which fields
// are meaningful depends on the strategy:
//
//   - install_dependency: Tool names the catalog tool to install first.
//   - retry_with_modifier and add_repository: Command holds the literal
//     command to run, with {command} standing for the original command.
//   - fix_environment: Env holds the variables to set before retrying.
//   - manual_instruction: Instruction holds text for the user.
type Option struct {
	Strategy    Strategy          `toml:"strategy"`
	Recommended bool              `toml:"recommended"`
	Tool        string            `toml:"tool,omitempty"`
	Command     string            `toml:"command,omitempty"`
	Env         map[string]string `toml:"env,omitempty"`
	Instruction string            `toml:"instruction,omitempty"`
	Note        string            `toml:"note,omitempty"`
}

// Entry is one diagnosable failure signature and its remediation options.
type Entry struct {
	// ID is a stable identifier, conventionally "<table>/<failure>".
	ID string
	// Layer is assigned by the registry; recipe entries need not set it.
	Layer Layer
	// Category classifies the root cause.
	Category Category
	// Patterns are case-insensitive substrings; any one matching the
	// command output selects this entry.
	Patterns []string
	// Regexp optionally holds a regular expression matched against the
	// raw output. Patterns and Regexp may be combined.
	Regexp string
	// Sample is representative output that triggers this entry. It seeds
	// the coverage matrix and has no effect on matching.
	Sample string
	// Options are the proposed remediations, most preferred first.
	Options []Option

	re *regexp.Regexp
}

// Compile prepares the entry's regular expression, if any. Entries with
// only substring patterns compile trivially.
func (e *Entry) Compile() error {
	if e.Regexp == "" {
		return nil
	}
	re, err := regexp.Compile(e.Regexp)
	if err != nil {
		return fmt.Errorf("handler %s: invalid regexp: %w", e.ID, err)
	}
	e.re = re
	return nil
}

// Matches reports whether output exhibits this entry's failure signature.
// Substring patterns are matched case-insensitively against the whole
// output; the regexp, when present, is matched against the raw text.
func (e *Entry) Matches(output string) bool {
	return e.matchesLower(strings.ToLower(output), output)
}

func (e *Entry) matchesLower(lower, raw string) bool {
	for _, p := range e.Patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	if e.re != nil {
		return e.re.MatchString(raw)
	}
	return false
}

// Recommended returns the entry's recommended option, or its first
// option when none is explicitly marked.
func (e *Entry) Recommended() Option {
	for _, o := range e.Options {
		if o.Recommended {
			return o
		}
	}
	return e.Options[0]
}

// Validate checks an entry for structural problems. Builtin tables are
// covered by tests; this is primarily for entries loaded from recipes.
func (e *Entry) Validate() []string {
	var problems []string
	if len(e.Patterns) == 0 && e.Regexp == "" {
		problems = append(problems, "entry has no patterns and no regexp")
	}
	for _, p := range e.Patterns {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, "empty pattern")
		}
		if p != strings.ToLower(p) {
			problems = append(problems, fmt.Sprintf("pattern %q must be lowercase", p))
		}
	}
	if !ValidCategory(e.Category) {
		problems = append(problems, fmt.Sprintf("unknown category %q", e.Category))
	}
	if len(e.Options) == 0 {
		problems = append(problems, "entry has no options")
	}
	for i, o := range e.Options {
		if !ValidStrategy(o.Strategy) {
			problems = append(problems, fmt.Sprintf("option %d: unknown strategy %q", i, o.Strategy))
			continue
		}
		switch o.Strategy {
		case StrategyInstallDependency:
			if o.Tool == "" {
				problems = append(problems, fmt.Sprintf("option %d: install_dependency requires a tool", i))
			}
		case StrategyRetryModified, StrategyAddRepository:
			if o.Command == "" {
				problems = append(problems, fmt.Sprintf("option %d: %s requires a command", i, o.Strategy))
			}
		case StrategyFixEnvironment:
			if len(o.Env) == 0 {
				problems = append(problems, fmt.Sprintf("option %d: fix_environment requires env vars", i))
			}
		case StrategyManual:
			if o.Instruction == "" {
				problems = append(problems, fmt.Sprintf("option %d: manual_instruction requires instruction text", i))
			}
		}
	}
	return problems
}
