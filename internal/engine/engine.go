// Package engine is the surface everything else builds on. It wires the
// catalog, the availability resolver, the handler registry, the chain
// resolver, and the process executor behind two calls: ResolveAndPlan
// answers "how do I install this tool here", Diagnose answers "the
// install failed with this output, now what". Install drives the two
// against the live system.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/handler"
	"github.com/tsukumogami/naosu/internal/log"
	"github.com/tsukumogami/naosu/internal/procexec"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

// Config assembles an engine. Catalog and Handlers are required; the
// rest have working defaults.
type Config struct {
	Catalog  *catalog.Catalog
	Handlers *handler.Registry
	// Runner executes planned commands. Defaults to the live shell
	// runner; only Install uses it.
	Runner procexec.Runner
	// Versions resolves {version} templates. Nil leaves version-needing
	// methods failing as configuration errors, which offline callers
	// may want.
	Versions chain.VersionSource
	// MaxDepth bounds remediation chains. Zero uses the configured
	// default.
	MaxDepth int
	Logger   log.Logger
}

// Engine resolves and diagnoses installs. All referenced data is
// read-only after construction, so one engine serves concurrent
// resolutions without locking.
type Engine struct {
	catalog  *catalog.Catalog
	handlers *handler.Registry
	runner   procexec.Runner
	versions chain.VersionSource
	chains   *chain.Resolver
	logger   log.Logger
}

// New validates the config and builds an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("engine: a catalog is required")
	}
	if cfg.Handlers == nil {
		return nil, fmt.Errorf("engine: a handler registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = procexec.NewShellRunner(logger)
	}
	return &Engine{
		catalog:  cfg.Catalog,
		handlers: cfg.Handlers,
		runner:   runner,
		versions: cfg.Versions,
		chains:   chain.New(cfg.Catalog, cfg.Versions, cfg.MaxDepth),
		logger:   logger,
	}, nil
}

// Resolution is the full answer for one tool on one machine: every
// method's availability, the selected method, and the install plan with
// any unlock prerequisites scheduled first.
type Resolution struct {
	Tool     string                         `json:"tool"`
	Statuses map[string]availability.Status `json:"statuses"`
	Selected availability.Selection         `json:"selected"`
	Plan     *chain.InstallPlan             `json:"plan"`
}

// ResolveAndPlan computes the resolution for one tool. Errors follow
// the taxonomy: NotFoundError for unknown tools, NoneAvailableError
// when every method is impossible here, chain errors for broken
// prerequisite graphs, ConfigurationError for broken templates.
func (e *Engine) ResolveAndPlan(ctx context.Context, tool string, prof *sysprofile.Profile) (*Resolution, error) {
	rec, err := e.catalog.Get(tool)
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
	plan, err := e.chains.ResolveInstall(ctx, tool, prof)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("resolved tool",
		"tool", tool, "method", sel.Method, "state", string(sel.Status.State))
	return &Resolution{Tool: tool, Statuses: statuses, Selected: sel, Plan: plan}, nil
}

// UnhandledFailureError means no handler layer recognized the captured
// output. It carries the raw output verbatim: the right response is to
// show it to a human who can extend the catalog, not to guess.
type UnhandledFailureError struct {
	Tool   string
	Method string
	Output string
}

func (e *UnhandledFailureError) Error() string {
	out := strings.TrimSpace(e.Output)
	if len(out) > 400 {
		out = out[:400] + " ..."
	}
	return fmt.Sprintf("no handler matched the failure installing %q via %q; captured output:\n%s",
		e.Tool, e.Method, out)
}

// Diagnose matches captured failure output against the handler layers
// and expands the winning entry into a remediation plan. NoMatch is an
// UnhandledFailureError, reachable only for output outside the nine
// canonical infrastructure classes.
func (e *Engine) Diagnose(ctx context.Context, tool, method, output string, prof *sysprofile.Profile) (*chain.Plan, error) {
	rec, err := e.catalog.Get(tool)
	if err != nil {
		return nil, err
	}
	m, ok := rec.Method(method)
	if !ok {
		return nil, &catalog.UnknownMethodError{Tool: tool, Method: method}
	}

	query := handler.Query{Tool: tool, Ecosystem: m.Ecosystem, Family: m.Family}
	entry, ok := e.handlers.Match(output, query)
	if !ok {
		return nil, &UnhandledFailureError{Tool: tool, Method: method, Output: output}
	}
	e.logger.Debug("matched handler",
		"tool", tool, "method", method, "handler", entry.ID, "layer", entry.Layer.String())

	req := chain.Request{
		Tool:    tool,
		Method:  method,
		Command: e.commandFor(ctx, rec, m, prof),
	}
	return e.chains.BuildPlan(ctx, entry, req, prof)
}

// commandFor renders the method's command for retry options. Diagnosis
// is best-effort offline: when the template needs a version nothing can
// resolve, the raw template still tells the user what would run.
func (e *Engine) commandFor(ctx context.Context, rec *catalog.Recipe, m *catalog.MethodSpec, prof *sysprofile.Profile) string {
	version := ""
	if m.NeedsVersion(prof.OS) && e.versions != nil {
		if v, err := e.versions(ctx, rec); err == nil {
			version = v
		}
	}
	cmd, err := availability.RenderCommand(rec, m, prof, version)
	if err != nil {
		return m.CommandFor(prof.OS)
	}
	return cmd
}

// BatchResult is one tool's outcome in a batch resolution.
type BatchResult struct {
	Tool       string
	Resolution *Resolution
	Err        error
}

// batchConcurrency bounds parallel resolutions. Resolution is cheap and
// pure; the bound just keeps version lookups polite.
const batchConcurrency = 8

// ResolveAll resolves many tools concurrently. All shared data is
// read-only and each result lands in its own slot, so no locking is
// involved. Per-tool failures land in the result; the returned error is
// reserved for context cancellation.
func (e *Engine) ResolveAll(ctx context.Context, tools []string, prof *sysprofile.Profile) ([]BatchResult, error) {
	results := make([]BatchResult, len(tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, tool := range tools {
		i, tool := i, tool
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.ResolveAndPlan(gctx, tool, prof)
			results[i] = BatchResult{Tool: tool, Resolution: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// InstallOptions tune one install attempt.
type InstallOptions struct {
	// Method pins a method instead of selecting by preference.
	Method string
	// Timeout bounds each executed command. Zero uses the configured
	// default.
	Timeout time.Duration
	// ApplyFixes executes the recommended remediation step after a
	// failure and retries, instead of stopping at the plan.
	ApplyFixes bool
	// MaxAttempts bounds the fix-and-retry loop. Zero means 3.
	MaxAttempts int
}

// Attempt is one executed command and, when it failed, its diagnosis.
type Attempt struct {
	Command string          `json:"command"`
	Output  procexec.Output `json:"output"`
	// Plan is the remediation plan for a failed attempt.
	Plan *chain.Plan `json:"plan,omitempty"`
	// Fix is the step applied before the next attempt, when there was
	// one.
	Fix *chain.Step `json:"fix,omitempty"`
}

// InstallResult is the transcript of an install.
type InstallResult struct {
	Resolution *Resolution `json:"resolution"`
	Attempts   []Attempt   `json:"attempts"`
	Installed  bool        `json:"installed"`
}

// Install resolves a tool and executes its plan: prerequisite installs
// first, then the selected method's command. On failure the output is
// diagnosed; with ApplyFixes the recommended actionable step runs and
// the command is retried. Dependency installs happen at most once per
// call even when retries and fixes name them again.
func (e *Engine) Install(ctx context.Context, tool string, prof *sysprofile.Profile, opts InstallOptions) (*InstallResult, error) {
	res, err := e.resolveForInstall(ctx, tool, prof, opts.Method)
	if err != nil {
		return nil, err
	}
	result := &InstallResult{Resolution: res}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	// Tools installed during this call; "at most once per run".
	installed := map[string]bool{}
	if err := e.runSequence(ctx, res.Plan.Prereqs, installed, opts.Timeout, result); err != nil {
		return result, err
	}
	if !result.failedEarly() {
		e.runMain(ctx, res, prof, opts, maxAttempts, installed, result)
	}
	return result, nil
}

// resolveForInstall honors a pinned method; otherwise it is plain
// resolution.
func (e *Engine) resolveForInstall(ctx context.Context, tool string, prof *sysprofile.Profile, pinned string) (*Resolution, error) {
	if pinned == "" {
		return e.ResolveAndPlan(ctx, tool, prof)
	}
	rec, err := e.catalog.Get(tool)
	if err != nil {
		return nil, err
	}
	m, ok := rec.Method(pinned)
	if !ok {
		return nil, &catalog.UnknownMethodError{Tool: tool, Method: pinned}
	}
	status, err := availability.Resolve(rec, pinned, prof)
	if err != nil {
		return nil, err
	}
	statuses, err := availability.Statuses(rec, prof)
	if err != nil {
		return nil, err
	}

	version := ""
	if m.NeedsVersion(prof.OS) {
		if e.versions == nil {
			return nil, &catalog.ConfigurationError{
				Source: "recipe " + tool,
				Problems: []catalog.ValidationError{{
					Recipe: tool, Field: "methods." + pinned + ".command",
					Message: "references {version} but no version source is configured",
				}},
			}
		}
		if version, err = e.versions(ctx, rec); err != nil {
			return nil, err
		}
	}
	cmd, err := availability.RenderCommand(rec, m, prof, version)
	if err != nil {
		return nil, err
	}
	plan := &chain.InstallPlan{
		Tool:           tool,
		Method:         pinned,
		Status:         status,
		Command:        cmd,
		NeedsSudo:      m.NeedsSudo,
		SystemPackages: m.Requires.Packages[prof.LinuxFamily],
	}
	return &Resolution{
		Tool:     tool,
		Statuses: statuses,
		Selected: availability.Selection{Method: pinned, Status: status},
		Plan:     plan,
	}, nil
}

// runSequence executes prerequisite installs in order, skipping tools
// already installed this run.
func (e *Engine) runSequence(ctx context.Context, prereqs []*chain.InstallPlan, installed map[string]bool, timeout time.Duration, result *InstallResult) error {
	for _, pre := range prereqs {
		for _, step := range pre.Sequence() {
			if installed[step.Tool] {
				continue
			}
			out, err := e.runner.Execute(ctx, procexec.Request{
				Command:   step.Command,
				NeedsSudo: step.NeedsSudo,
				Timeout:   timeout,
			})
			if err != nil {
				return err
			}
			result.Attempts = append(result.Attempts, Attempt{Command: step.Command, Output: out})
			if out.Failed() {
				e.logger.Warn("prerequisite install failed", "tool", step.Tool, "exit_code", out.ExitCode)
				return nil
			}
			installed[step.Tool] = true
			e.logger.Info("prerequisite installed", "tool", step.Tool, "method", step.Method)
		}
	}
	return nil
}

// runMain executes the selected method's command with the fix-and-retry
// loop.
func (e *Engine) runMain(ctx context.Context, res *Resolution, prof *sysprofile.Profile, opts InstallOptions, maxAttempts int, installed map[string]bool, result *InstallResult) {
	command := res.Plan.Command
	needsSudo := res.Plan.NeedsSudo

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := e.runner.Execute(ctx, procexec.Request{
			Command:   command,
			NeedsSudo: needsSudo,
			Timeout:   opts.Timeout,
		})
		if err != nil {
			result.Attempts = append(result.Attempts, Attempt{Command: command, Output: out})
			return
		}
		a := Attempt{Command: command, Output: out}
		if !out.Failed() {
			result.Attempts = append(result.Attempts, a)
			result.Installed = true
			return
		}

		plan, err := e.Diagnose(ctx, res.Tool, res.Plan.Method, out.Combined(), prof)
		if err != nil {
			// Unhandled or config failure: record the raw attempt; the
			// caller presents the error taxonomy.
			result.Attempts = append(result.Attempts, a)
			return
		}
		a.Plan = plan

		if !opts.ApplyFixes {
			result.Attempts = append(result.Attempts, a)
			return
		}
		step, ok := plan.Recommended()
		if !ok {
			result.Attempts = append(result.Attempts, a)
			return
		}
		a.Fix = &step
		result.Attempts = append(result.Attempts, a)

		next, ok := e.applyFix(ctx, step, installed, opts.Timeout, result)
		if !ok {
			return
		}
		if next != "" {
			// Replacement commands are fully rendered, elevation
			// included.
			command = next
			needsSudo = false
		}
	}
}

// applyFix executes one remediation step. It returns the command the
// retry should use ("" keeps the current one) and whether the retry
// should happen at all.
func (e *Engine) applyFix(ctx context.Context, step chain.Step, installed map[string]bool, timeout time.Duration, result *InstallResult) (string, bool) {
	switch step.Option.Strategy {
	case handler.StrategyInstallDependency:
		for _, node := range step.Install.Sequence() {
			if installed[node.Tool] {
				continue
			}
			out, err := e.runner.Execute(ctx, procexec.Request{
				Command:   node.Command,
				NeedsSudo: node.NeedsSudo,
				Timeout:   timeout,
			})
			if err != nil {
				return "", false
			}
			result.Attempts = append(result.Attempts, Attempt{Command: node.Command, Output: out})
			if out.Failed() {
				return "", false
			}
			installed[node.Tool] = true
		}
		return "", true

	case handler.StrategyAddRepository, handler.StrategyRetryElevated,
		handler.StrategyRetryModified, handler.StrategyFixEnvironment:
		// These carry a complete replacement command: the repository
		// variants chain the retry behind the setup, the others adjust
		// the original invocation.
		return step.Command, true

	default:
		// Manual instructions cannot be executed for the user.
		return "", false
	}
}

func (r *InstallResult) failedEarly() bool {
	for _, a := range r.Attempts {
		if a.Output.Failed() {
			return true
		}
	}
	return false
}
