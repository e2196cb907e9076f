// Package chain expands matched failure handlers into executable
// remediation plans. Leaf options are graded against the system profile;
// install_dependency options are resolved recursively through the
// availability resolver and method selector, with breadcrumb cycle
// detection and a depth limit bounding pathological catalogs.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/config"
	"github.com/tsukumogami/naosu/internal/handler"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

// Chain expansion errors. Both indicate catalog authoring bugs or
// genuinely circular prerequisites; they fail the whole plan rather
// than silently dropping the offending option.
var (
	ErrCycle   = errors.New("cyclic remediation dependency")
	ErrTooDeep = errors.New("remediation chain too deep")
)

// UnresolvedPrerequisiteError means a locked method waits on a binary
// that no catalog tool provides, so the chain cannot schedule an
// install for it.
type UnresolvedPrerequisiteError struct {
	Tool   string // tool whose method is locked
	Binary string // missing binary
}

func (e *UnresolvedPrerequisiteError) Error() string {
	return fmt.Sprintf("tool %q needs binary %q but no catalog tool provides it", e.Tool, e.Binary)
}

// VersionSource supplies the release version for command templates that
// reference {version}. The resolver only calls it for templates that
// need one. StaticVersion serves offline callers and tests.
type VersionSource func(ctx context.Context, rec *catalog.Recipe) (string, error)

// StaticVersion returns a VersionSource that always resolves to v.
func StaticVersion(v string) VersionSource {
	return func(context.Context, *catalog.Recipe) (string, error) { return v, nil }
}

// Readiness annotates whether a plan step can run on the profiled
// machine.
type Readiness string

const (
	// ReadinessReady means the step is executable as-is.
	ReadinessReady Readiness = "ready"
	// ReadinessNeedsInstall means the step carries a nested install
	// that must run first.
	ReadinessNeedsInstall Readiness = "needs_install_first"
	// ReadinessImpossible means profile facts rule the step out on this
	// machine.
	ReadinessImpossible Readiness = "impossible"
)

// Step is one remediation option expanded against a profile. Leaf
// strategies carry the literal command or instruction; the
// install_dependency strategy carries a nested install plan.
type Step struct {
	Option    handler.Option `json:"option"`
	Readiness Readiness      `json:"readiness"`
	// Reason explains an impossible step.
	Reason string `json:"reason,omitempty"`
	// Command is the literal command to run, for steps that have one.
	Command string `json:"command,omitempty"`
	// Install is the resolved dependency install for
	// install_dependency steps.
	Install *InstallPlan `json:"install,omitempty"`
}

// Actionable reports whether the step offers the user something to do
// on this machine.
func (s Step) Actionable() bool { return s.Readiness != ReadinessImpossible }

// Plan is a fully expanded remediation plan for one diagnosed failure.
// Steps keep the matched handler's option order; the recommended step
// index points at the option the handler marks recommended.
type Plan struct {
	Tool      string           `json:"tool"`
	Method    string           `json:"method"`
	HandlerID string           `json:"handler_id"`
	Layer     handler.Layer    `json:"-"`
	Category  handler.Category `json:"category"`
	Steps     []Step           `json:"steps"`
}

// Recommended returns the first actionable step, preferring the one
// whose option is marked recommended. The boolean is false when every
// step is impossible on this machine.
func (p *Plan) Recommended() (Step, bool) {
	for _, s := range p.Steps {
		if s.Option.Recommended && s.Actionable() {
			return s, true
		}
	}
	for _, s := range p.Steps {
		if s.Actionable() {
			return s, true
		}
	}
	return Step{}, false
}

// InstallPlan is the resolved way to install one catalog tool on the
// profiled machine. Prereqs are installs that must complete before the
// command runs; Sequence flattens the whole tree into execution order.
type InstallPlan struct {
	Tool   string              `json:"tool"`
	Method string              `json:"method"`
	Status availability.Status `json:"status"`
	// Command is the literal install command for this tool.
	Command string `json:"command"`
	// NeedsSudo mirrors the selected method's elevation requirement.
	NeedsSudo bool `json:"needs_sudo,omitempty"`
	// SystemPackages are prerequisite distro packages the selected
	// method lists for this machine's family. Surfaced for display;
	// they do not gate availability.
	SystemPackages []string `json:"system_packages,omitempty"`
	// Prereqs must be installed first, in order.
	Prereqs []*InstallPlan `json:"prereqs,omitempty"`
}

// Sequence returns the plan's installs in execution order, prerequisites
// before the tools that need them.
func (p *InstallPlan) Sequence() []*InstallPlan {
	var out []*InstallPlan
	for _, pre := range p.Prereqs {
		out = append(out, pre.Sequence()...)
	}
	return append(out, p)
}

// Request identifies the failure a plan is built for. Command is the
// command that failed; retry options render it back into their
// {command} placeholder.
type Request struct {
	Tool    string
	Method  string
	Command string
}

// Resolver expands handler options into plans. It only reads the
// catalog and profile, so one resolver is safe for concurrent use;
// breadcrumbs are per-branch copies, never shared.
type Resolver struct {
	catalog  *catalog.Catalog
	versions VersionSource
	maxDepth int
}

// New builds a resolver. A nil versions source fails version-dependent
// templates as configuration errors; maxDepth <= 0 falls back to the
// configured default.
func New(cat *catalog.Catalog, versions VersionSource, maxDepth int) *Resolver {
	if versions == nil {
		versions = StaticVersion("")
	}
	if maxDepth <= 0 {
		maxDepth = config.GetMaxChainDepth()
	}
	return &Resolver{catalog: cat, versions: versions, maxDepth: maxDepth}
}

// BuildPlan expands a matched handler entry into a remediation plan
// for the profiled machine. Options keep their declared order. A cycle
// or depth overrun fails the whole plan: both mean the catalog's
// dependency graph is wrong, and a truncated plan would hide that.
func (r *Resolver) BuildPlan(ctx context.Context, entry *handler.Entry, req Request, prof *sysprofile.Profile) (*Plan, error) {
	plan := &Plan{
		Tool:      req.Tool,
		Method:    req.Method,
		HandlerID: entry.ID,
		Layer:     entry.Layer,
		Category:  entry.Category,
		Steps:     make([]Step, 0, len(entry.Options)),
	}
	// Breadcrumbs start empty at the diagnosis root: no dependency
	// install has been visited yet. Each recursion records the tool it
	// is about to resolve, so only genuine path cycles among dependency
	// installs fail the plan.
	for _, opt := range entry.Options {
		step, err := r.expandOption(ctx, opt, req, prof, nil)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan, nil
}

// ResolveInstall resolves how to install one tool on a machine,
// scheduling prerequisite installs first. This is the unlock preview
// for locked selections; install_dependency options go through the
// same expansion.
func (r *Resolver) ResolveInstall(ctx context.Context, tool string, prof *sysprofile.Profile) (*InstallPlan, error) {
	return r.expandInstall(ctx, tool, prof, nil, 0)
}

func (r *Resolver) expandOption(ctx context.Context, opt handler.Option, req Request, prof *sysprofile.Profile, crumbs []string) (Step, error) {
	step := Step{Option: opt, Readiness: ReadinessReady}

	switch opt.Strategy {
	case handler.StrategyInstallDependency:
		install, err := r.expandInstall(ctx, opt.Tool, prof, crumbs, 0)
		if err != nil {
			if isChainErr(err) {
				return Step{}, err
			}
			var none *availability.NoneAvailableError
			var unres *UnresolvedPrerequisiteError
			if errors.As(err, &none) || errors.As(err, &unres) {
				step.Readiness = ReadinessImpossible
				step.Reason = err.Error()
				return step, nil
			}
			return Step{}, err
		}
		step.Readiness = ReadinessNeedsInstall
		step.Install = install
		step.Command = req.Command
		return step, nil

	case handler.StrategyRetryElevated:
		if !prof.CanElevate() {
			step.Readiness = ReadinessImpossible
			step.Reason = "no way to elevate: sudo is not available and the user is not root"
			return step, nil
		}
		step.Command = elevate(req.Command, prof)
		return step, nil

	case handler.StrategyRetryModified, handler.StrategyAddRepository:
		step.Command = strings.ReplaceAll(opt.Command, "{command}", req.Command)
		return step, nil

	case handler.StrategyFixEnvironment:
		step.Command = envPrefix(opt.Env) + req.Command
		return step, nil

	case handler.StrategyManual:
		// Nothing to run; the instruction itself is the action.
		return step, nil

	default:
		return Step{}, &catalog.ConfigurationError{
			Source: "handler " + req.Tool,
			Problems: []catalog.ValidationError{{
				Recipe:  req.Tool,
				Field:   "handlers.options.strategy",
				Message: fmt.Sprintf("unknown strategy %q", opt.Strategy),
			}},
		}
	}
}

// expandInstall resolves tool through the availability resolver and
// method selector, recursing into unlock prerequisites. crumbs is the
// path of tools already being installed above this one; each recursion
// extends a private copy, so concurrent branches never share state.
func (r *Resolver) expandInstall(ctx context.Context, tool string, prof *sysprofile.Profile, crumbs []string, depth int) (*InstallPlan, error) {
	for _, ancestor := range crumbs {
		if ancestor == tool {
			cycle := append(append([]string{}, crumbs...), tool)
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
		}
	}
	if depth >= r.maxDepth {
		path := append(append([]string{}, crumbs...), tool)
		return nil, fmt.Errorf("%w: exceeded depth %d at %s",
			ErrTooDeep, r.maxDepth, strings.Join(path, " -> "))
	}

	rec, err := r.catalog.Get(tool)
	if err != nil {
		return nil, err
	}
	statuses, err := availability.Statuses(rec, prof)
	if err != nil {
		return nil, err
	}
	sel, err := availability.Select(rec, statuses)
	if err != nil {
		return nil, err
	}
	method, _ := rec.Method(sel.Method)

	version := ""
	if method.NeedsVersion(prof.OS) {
		version, err = r.versions(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("resolving version for %s: %w", tool, err)
		}
	}
	cmd, err := availability.RenderCommand(rec, method, prof, version)
	if err != nil {
		return nil, err
	}

	install := &InstallPlan{
		Tool:           tool,
		Method:         sel.Method,
		Status:         sel.Status,
		Command:        cmd,
		NeedsSudo:      method.NeedsSudo,
		SystemPackages: method.Requires.Packages[prof.LinuxFamily],
	}

	if sel.Locked() {
		unlock := sel.Status.Unlock
		dep := unlock.Tool
		if dep == "" {
			dep, _ = r.catalog.ToolForBinary(unlock.Binary)
		}
		if dep == "" {
			return nil, &UnresolvedPrerequisiteError{Tool: tool, Binary: unlock.Binary}
		}
		next := append(append([]string{}, crumbs...), tool)
		pre, err := r.expandInstall(ctx, dep, prof, next, depth+1)
		if err != nil {
			return nil, err
		}
		install.Prereqs = append(install.Prereqs, pre)
	}
	return install, nil
}

func isChainErr(err error) bool {
	return errors.Is(err, ErrCycle) || errors.Is(err, ErrTooDeep)
}

// elevate prefixes a command with sudo unless the user is already root.
func elevate(cmd string, prof *sysprofile.Profile) string {
	if prof.IsRoot || strings.HasPrefix(cmd, "sudo ") {
		return cmd
	}
	return "sudo " + cmd
}

// envPrefix renders environment assignments in a stable order for
// prefixing a shell command.
func envPrefix(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(env[k])
		b.WriteByte(' ')
	}
	return b.String()
}
