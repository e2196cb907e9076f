package coverage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/handler"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

// debianProfile is a root debian container: apt available, everything
// writable, nothing beyond the basics installed.
func debianProfile() *sysprofile.Profile {
	return &sysprofile.Profile{
		Name:               "deb",
		OS:                 "linux",
		Arch:               "amd64",
		LinuxFamily:        "debian",
		Libc:               "glibc",
		PackageManagers:    []string{"apt"},
		InstalledBinaries:  []string{"bash", "tar"},
		IsRoot:             true,
		FilesystemWritable: true,
		HomeWritable:       true,
	}
}

func aptRecipe(name string) *catalog.Recipe {
	return &catalog.Recipe{
		Metadata: catalog.MetadataSection{Name: name, Binary: name},
		Methods: []catalog.MethodSpec{{
			Name: "apt", Kind: catalog.KindNativePM, Family: "apt",
			Packages: []string{name}, NeedsSudo: true,
		}},
	}
}

func scriptRecipe(name, binary string, needs ...string) *catalog.Recipe {
	return &catalog.Recipe{
		Metadata: catalog.MetadataSection{Name: name, Binary: binary},
		Methods: []catalog.MethodSpec{{
			Name: "script", Kind: catalog.KindScript,
			Command:  "curl -fsSL https://example.com/" + name + ".sh | sh",
			Requires: catalog.Requires{Binaries: needs},
		}},
	}
}

func testCatalog(t *testing.T, recipes ...*catalog.Recipe) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("test", recipes)
	require.NoError(t, err)
	return cat
}

// testRegistry builds a registry from explicit tables plus the catalog's
// tool handlers. The builtin tables would drag in dependency tools these
// focused catalogs do not carry.
func testRegistry(t *testing.T, cat *catalog.Catalog, infra []handler.Entry, families map[string][]handler.Entry) *handler.Registry {
	t.Helper()
	if families == nil {
		families = map[string][]handler.Entry{}
	}
	reg, err := handler.NewRegistry(infra, families, map[string][]handler.Entry{})
	require.NoError(t, err)
	for tool, entries := range cat.ToolEntries() {
		require.NoError(t, reg.AddToolEntries(tool, entries))
	}
	return reg
}

func testInfra() []handler.Entry {
	return []handler.Entry{
		{
			ID:       "infra/helper_missing",
			Category: handler.CategoryDependency,
			Patterns: []string{"helper: not found"},
			Sample:   "sh: 1: helper: not found",
			Options: []handler.Option{
				{Strategy: handler.StrategyInstallDependency, Tool: "helper", Recommended: true},
				{Strategy: handler.StrategyManual, Instruction: "Install helper by hand."},
			},
		},
		{
			ID:       "infra/disk_full",
			Category: handler.CategoryResources,
			Patterns: []string{"no space left"},
			Sample:   "tar: ./x: Cannot write: No space left on device",
			Options: []handler.Option{
				{Strategy: handler.StrategyManual, Recommended: true, Instruction: "Free disk space and retry."},
			},
		},
	}
}

func runMatrix(t *testing.T, cat *catalog.Catalog, reg *handler.Registry, presets map[string]*sysprofile.Profile) *Report {
	t.Helper()
	report, err := New(cat, reg, presets).Run(context.Background())
	require.NoError(t, err)
	return report
}

func cellFor(t *testing.T, report *Report, tool, scenarioID string) Cell {
	t.Helper()
	for _, c := range report.Cells {
		if c.Tool == tool && c.ScenarioID == scenarioID {
			return c
		}
	}
	t.Fatalf("no cell for tool %s scenario %s", tool, scenarioID)
	return Cell{}
}

func TestMatrixAllCellsPass(t *testing.T) {
	cat := testCatalog(t, aptRecipe("widget"), aptRecipe("helper"))
	reg := testRegistry(t, cat, testInfra(), map[string][]handler.Entry{
		"apt": {{
			ID:       "apt/lock_held",
			Category: handler.CategoryConfiguration,
			Patterns: []string{"could not get lock"},
			Sample:   "E: Could not get lock /var/lib/dpkg/lock-frontend",
			Options: []handler.Option{
				{Strategy: handler.StrategyManual, Recommended: true, Instruction: "Wait for the other apt and retry."},
			},
		}},
	})

	report := runMatrix(t, cat, reg, map[string]*sysprofile.Profile{"deb": debianProfile()})

	assert.True(t, report.Passed())
	assert.Empty(t, report.Skips)
	// Two tools, each diagnosing one apt scenario and two infra scenarios.
	assert.Len(t, report.Cells, 6)

	cell := cellFor(t, report, "widget", "infra/helper_missing")
	assert.Equal(t, OutcomeOK, cell.Outcome)
	assert.Equal(t, "infra/helper_missing", cell.MatchedID)
	assert.Equal(t, "infra", cell.Layer.String())
	assert.Equal(t, handler.CategoryDependency, cell.Category)
	assert.Equal(t, "apt", cell.Method)

	// A tool may remediate a failure by reinstalling itself: the helper
	// cell plans "install helper" while diagnosing helper.
	cell = cellFor(t, report, "helper", "infra/helper_missing")
	assert.Equal(t, OutcomeOK, cell.Outcome)
}

func TestMatrixSkipsToolWithNoUsableMethod(t *testing.T) {
	cat := testCatalog(t, aptRecipe("widget"))
	reg := testRegistry(t, cat, testInfra(), nil)

	bare := debianProfile()
	bare.Name = "bare"
	bare.PackageManagers = nil

	report := runMatrix(t, cat, reg, map[string]*sysprofile.Profile{"bare": bare})

	assert.True(t, report.Passed())
	assert.Empty(t, report.Cells)
	require.Len(t, report.Skips, 1)
	assert.Equal(t, Skip{Tool: "widget", Preset: "bare", Reason: "no method available"}, report.Skips[0])
}

func TestMatrixFlagsUnmatchedSample(t *testing.T) {
	cat := testCatalog(t, aptRecipe("widget"))
	// The sample does not exhibit the entry's own signature, so no layer
	// claims it. That is exactly the authoring bug the matrix exists to
	// catch.
	reg := testRegistry(t, cat, []handler.Entry{{
		ID:       "infra/mislabeled",
		Category: handler.CategoryNetwork,
		Patterns: []string{"very specific signature"},
		Sample:   "something else entirely",
		Options: []handler.Option{
			{Strategy: handler.StrategyManual, Recommended: true, Instruction: "n/a"},
		},
	}}, nil)

	report := runMatrix(t, cat, reg, map[string]*sysprofile.Profile{"deb": debianProfile()})

	assert.False(t, report.Passed())
	require.Len(t, report.Failures(), 1)
	cell := report.Failures()[0]
	assert.Equal(t, OutcomeNoMatch, cell.Outcome)
	assert.Equal(t, "infra/mislabeled", cell.ScenarioID)
	assert.Contains(t, cell.Detail, "matched no layer")
}

func TestMatrixFlagsCellWithNoActionableOption(t *testing.T) {
	cat := testCatalog(t, aptRecipe("widget"))
	reg := testRegistry(t, cat, []handler.Entry{{
		ID:       "infra/needs_root",
		Category: handler.CategoryPermissions,
		Patterns: []string{"must be root"},
		Sample:   "error: must be root to continue",
		Options: []handler.Option{
			{Strategy: handler.StrategyRetryElevated, Recommended: true},
		},
	}}, nil)

	// Unprivileged user without sudo: elevation is off the table and the
	// entry offers nothing else.
	stuck := debianProfile()
	stuck.Name = "stuck"
	stuck.IsRoot = false

	report := runMatrix(t, cat, reg, map[string]*sysprofile.Profile{"stuck": stuck})

	require.Len(t, report.Failures(), 1)
	cell := report.Failures()[0]
	assert.Equal(t, OutcomeNoOption, cell.Outcome)
	assert.Contains(t, cell.Detail, "no way to elevate")
}

func TestMatrixFlagsCyclicRemediationAsPlanError(t *testing.T) {
	gadget := scriptRecipe("gadget", "gadget")
	gadget.Handlers = []catalog.HandlerSpec{{
		Patterns: []string{"gadget exploded"},
		Category: "dependency",
		Sample:   "gadget exploded: see log",
		Options: []handler.Option{
			{Strategy: handler.StrategyInstallDependency, Tool: "alpha", Recommended: true},
		},
	}}
	cat := testCatalog(t,
		gadget,
		scriptRecipe("alpha", "alpha-bin", "beta-bin"),
		scriptRecipe("beta", "beta-bin", "alpha-bin"),
	)
	reg := testRegistry(t, cat, []handler.Entry{testInfra()[1]}, nil)

	report := runMatrix(t, cat, reg, map[string]*sysprofile.Profile{"deb": debianProfile()})

	require.Len(t, report.Failures(), 1)
	cell := report.Failures()[0]
	assert.Equal(t, "gadget", cell.Tool)
	assert.Equal(t, OutcomePlanError, cell.Outcome)
	assert.Contains(t, cell.Detail, "cyclic remediation dependency")
}

func TestReportAggregations(t *testing.T) {
	report := &Report{
		Cells: []Cell{
			{Tool: "a", Preset: "p1", Layer: handler.LayerInfra, Category: handler.CategoryNetwork, Outcome: OutcomeOK},
			{Tool: "b", Preset: "p1", Layer: handler.LayerInfra, Category: handler.CategoryNetwork, Outcome: OutcomeNoMatch},
			{Tool: "c", Preset: "p2", Layer: handler.LayerMethodFamily, Category: handler.CategoryPermissions, Outcome: OutcomeNoOption},
		},
		Skips: []Skip{{Tool: "d", Preset: "p1", Reason: "no method available"}},
	}

	assert.False(t, report.Passed())
	assert.Len(t, report.Failures(), 2)

	byCategory := report.ByCategory()
	assert.Equal(t, Summary{Total: 2, Failed: 1}, byCategory[handler.CategoryNetwork])
	assert.Equal(t, Summary{Total: 1, Failed: 1}, byCategory[handler.CategoryPermissions])

	byLayer := report.ByLayer()
	assert.Equal(t, Summary{Total: 2, Failed: 1}, byLayer["infra"])
	assert.Equal(t, Summary{Total: 1, Failed: 1}, byLayer["family"])

	byPreset := report.ByPreset()
	assert.Equal(t, Summary{Total: 2, Failed: 1}, byPreset["p1"])
	assert.Equal(t, Summary{Total: 1, Failed: 1}, byPreset["p2"])
}

// TestEmbeddedCatalogCoverage runs the full matrix the shipped catalog
// must satisfy: every declared failure scenario, diagnosed for every
// catalog tool on every system preset, yields a plan with at least one
// actionable option. A failure here means a recipe or handler table
// shipped with a hole in it.
func TestEmbeddedCatalogCoverage(t *testing.T) {
	cat, err := catalog.Embedded()
	require.NoError(t, err)
	reg, err := cat.BuildRegistry()
	require.NoError(t, err)
	presets, err := sysprofile.LoadPresets()
	require.NoError(t, err)

	report := runMatrix(t, cat, reg, presets)

	for _, cell := range report.Failures() {
		t.Errorf("%s on %s: scenario %s -> %s (%s)",
			cell.Tool, cell.Preset, cell.ScenarioID, cell.Outcome, cell.Detail)
	}

	// The matrix only proves something if it actually covers the space:
	// every preset must contribute cells, and the skip list must stay
	// confined to tools that genuinely have no route on a preset.
	assert.Greater(t, len(report.Cells), 1000)
	byPreset := report.ByPreset()
	for name := range presets {
		assert.Contains(t, byPreset, name, "preset %s produced no cells", name)
	}
	for _, skip := range report.Skips {
		assert.Contains(t, []string{"sudo", "snapd"}, skip.Tool,
			"unexpected skip: %s on %s (%s)", skip.Tool, skip.Preset, skip.Reason)
	}
}
