// Package coverage runs the remediation coverage matrix: every catalog
// tool, crossed with every failure scenario its install context declares,
// crossed with every system preset, must diagnose to a handler whose plan
// has at least one actionable step. The matrix is a property check on the
// handler registry and the availability resolver; a failing cell means a
// user on that kind of machine would hit a failure the catalog cannot
// remediate.
package coverage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/handler"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

// Outcome classifies one matrix cell.
type Outcome string

const (
	// OutcomeOK means the scenario matched a handler and its plan has an
	// actionable step on the preset.
	OutcomeOK Outcome = "ok"
	// OutcomeNoMatch means no handler layer recognized the scenario's
	// sample output.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeNoOption means a handler matched but every plan step is
	// impossible on the preset.
	OutcomeNoOption Outcome = "no_option"
	// OutcomePlanError means plan expansion failed (cycle, depth,
	// configuration).
	OutcomePlanError Outcome = "plan_error"
)

// Cell is one (tool, preset, scenario) evaluation.
type Cell struct {
	Tool   string
	Preset string
	// Method is the install method selected for the tool on the preset;
	// it decides which handler tables are in scope.
	Method string
	// ScenarioID is the entry that declared the sample output.
	ScenarioID string
	// MatchedID is the entry the sample actually matched, which a more
	// specific layer may claim.
	MatchedID string
	Layer     handler.Layer
	Category  handler.Category
	Outcome   Outcome
	Detail    string
}

// Failed reports whether the cell violates the coverage property.
func (c Cell) Failed() bool { return c.Outcome != OutcomeOK }

// Skip records a (tool, preset) pair with no cells: no method can run
// there, so no failure output can arise.
type Skip struct {
	Tool   string
	Preset string
	Reason string
}

// Summary aggregates cell counts for one report dimension.
type Summary struct {
	Total  int
	Failed int
}

// Report is the outcome of a full matrix run.
type Report struct {
	Cells []Cell
	Skips []Skip
}

// Failures returns the cells violating the coverage property.
func (r *Report) Failures() []Cell {
	var out []Cell
	for _, c := range r.Cells {
		if c.Failed() {
			out = append(out, c)
		}
	}
	return out
}

// Passed reports whether every cell satisfied the property.
func (r *Report) Passed() bool { return len(r.Failures()) == 0 }

// ByCategory aggregates cells by the matched handler's category.
func (r *Report) ByCategory() map[handler.Category]Summary {
	out := map[handler.Category]Summary{}
	for _, c := range r.Cells {
		s := out[c.Category]
		s.Total++
		if c.Failed() {
			s.Failed++
		}
		out[c.Category] = s
	}
	return out
}

// ByLayer aggregates cells by the matched handler's layer.
func (r *Report) ByLayer() map[string]Summary {
	out := map[string]Summary{}
	for _, c := range r.Cells {
		s := out[c.Layer.String()]
		s.Total++
		if c.Failed() {
			s.Failed++
		}
		out[c.Layer.String()] = s
	}
	return out
}

// ByPreset aggregates cells by preset.
func (r *Report) ByPreset() map[string]Summary {
	out := map[string]Summary{}
	for _, c := range r.Cells {
		s := out[c.Preset]
		s.Total++
		if c.Failed() {
			s.Failed++
		}
		out[c.Preset] = s
	}
	return out
}

// Matrix enumerates the coverage cross product against one catalog,
// registry, and preset set.
type Matrix struct {
	catalog  *catalog.Catalog
	registry *handler.Registry
	presets  map[string]*sysprofile.Profile
	chains   *chain.Resolver
}

// New builds a matrix. Presets usually come from sysprofile.LoadPresets.
// Version templates render with a placeholder release: the matrix checks
// readiness, not command text, and must run offline.
func New(cat *catalog.Catalog, reg *handler.Registry, presets map[string]*sysprofile.Profile) *Matrix {
	return &Matrix{
		catalog:  cat,
		registry: reg,
		presets:  presets,
		chains:   chain.New(cat, chain.StaticVersion("0.0.0"), 0),
	}
}

// Run evaluates every cell. The returned error is reserved for broken
// inputs (catalog configuration errors); property violations land in the
// report's cells.
func (m *Matrix) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	presetNames := make([]string, 0, len(m.presets))
	for name := range m.presets {
		presetNames = append(presetNames, name)
	}
	sort.Strings(presetNames)

	for _, tool := range m.catalog.Names() {
		rec, err := m.catalog.Get(tool)
		if err != nil {
			return nil, err
		}
		for _, preset := range presetNames {
			if err := m.runPair(ctx, rec, preset, m.presets[preset], report); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

// runPair evaluates every scenario in scope for one tool on one preset.
func (m *Matrix) runPair(ctx context.Context, rec *catalog.Recipe, preset string, prof *sysprofile.Profile, report *Report) error {
	tool := rec.Name()
	statuses, err := availability.Statuses(rec, prof)
	if err != nil {
		return fmt.Errorf("tool %s on %s: %w", tool, preset, err)
	}
	sel, err := availability.Select(rec, statuses)
	if err != nil {
		var none *availability.NoneAvailableError
		if errors.As(err, &none) {
			// No method can run here, so no install failure can arise.
			report.Skips = append(report.Skips, Skip{
				Tool: tool, Preset: preset, Reason: "no method available",
			})
			return nil
		}
		return fmt.Errorf("tool %s on %s: %w", tool, preset, err)
	}

	method, _ := rec.Method(sel.Method)
	query := handler.Query{Tool: tool, Ecosystem: method.Ecosystem, Family: method.Family}
	command := m.commandFor(rec, method, prof)

	for _, sc := range m.registry.Scenarios(query) {
		report.Cells = append(report.Cells,
			m.runCell(ctx, tool, preset, prof, sel.Method, command, query, sc))
	}
	return nil
}

// runCell diagnoses one declared scenario as if its sample output had
// been captured installing the tool on the preset.
func (m *Matrix) runCell(ctx context.Context, tool, preset string, prof *sysprofile.Profile, method, command string, query handler.Query, sc handler.Scenario) Cell {
	cell := Cell{
		Tool:       tool,
		Preset:     preset,
		Method:     method,
		ScenarioID: sc.EntryID,
	}

	entry, ok := m.registry.Match(sc.Sample, query)
	if !ok {
		cell.Outcome = OutcomeNoMatch
		cell.Detail = fmt.Sprintf("sample of %s matched no layer", sc.EntryID)
		return cell
	}
	cell.MatchedID = entry.ID
	cell.Layer = entry.Layer
	cell.Category = entry.Category

	plan, err := m.chains.BuildPlan(ctx, entry, chain.Request{
		Tool:    tool,
		Method:  method,
		Command: command,
	}, prof)
	if err != nil {
		cell.Outcome = OutcomePlanError
		cell.Detail = err.Error()
		return cell
	}

	if _, ok := plan.Recommended(); !ok {
		cell.Outcome = OutcomeNoOption
		cell.Detail = impossibleReasons(plan)
		return cell
	}
	cell.Outcome = OutcomeOK
	return cell
}

// commandFor renders the method's command for retry options; the raw
// template is good enough when rendering fails, since the matrix never
// executes anything.
func (m *Matrix) commandFor(rec *catalog.Recipe, method *catalog.MethodSpec, prof *sysprofile.Profile) string {
	version := ""
	if method.NeedsVersion(prof.OS) {
		version = "0.0.0"
	}
	cmd, err := availability.RenderCommand(rec, method, prof, version)
	if err != nil {
		return method.CommandFor(prof.OS)
	}
	return cmd
}

func impossibleReasons(plan *chain.Plan) string {
	var reasons []string
	for _, s := range plan.Steps {
		if s.Reason != "" {
			reasons = append(reasons, s.Reason)
		}
	}
	if len(reasons) == 0 {
		return "no actionable option"
	}
	return strings.Join(reasons, "; ")
}
