package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tsukumogami/naosu/internal/coverage"
	"github.com/tsukumogami/naosu/internal/handler"
)

func sampleReport() *coverage.Report {
	return &coverage.Report{
		Cells: []coverage.Cell{
			{
				Tool: "ripgrep", Preset: "ubuntu-desktop", Method: "apt",
				ScenarioID: "family-native/locate-failed",
				MatchedID:  "family-native/locate-failed",
				Layer:      handler.LayerMethodFamily,
				Category:   handler.CategoryConfiguration,
				Outcome:    coverage.OutcomeOK,
			},
			{
				Tool: "ripgrep", Preset: "alpine-container", Method: "cargo",
				ScenarioID: "ecosystem-rust/linker-missing",
				MatchedID:  "ecosystem-rust/linker-missing",
				Layer:      handler.LayerEcosystem,
				Category:   handler.CategoryDependency,
				Outcome:    coverage.OutcomeNoOption,
				Detail:     "no root and no sudo on this system",
			},
		},
		Skips: []coverage.Skip{
			{Tool: "shellcheck", Preset: "minimal-container", Reason: "no method available"},
		},
	}
}

func TestBuildMatrixData(t *testing.T) {
	data := buildMatrixData(2, 3, sampleReport())

	if data.Tools != 2 || data.Presets != 3 {
		t.Errorf("dimensions = %dx%d, want 2x3", data.Tools, data.Presets)
	}
	if data.Cells != 2 {
		t.Errorf("Cells = %d, want 2", data.Cells)
	}
	if data.Failed != 1 {
		t.Errorf("Failed = %d, want 1", data.Failed)
	}

	if len(data.Failures) != 1 {
		t.Fatalf("Failures = %d entries, want 1", len(data.Failures))
	}
	f := data.Failures[0]
	if f.Tool != "ripgrep" || f.Preset != "alpine-container" || f.Outcome != "no_option" {
		t.Errorf("failure = %+v", f)
	}

	dep := data.ByCategory["dependency"]
	if dep.Total != 1 || dep.Failed != 1 || dep.Percent != 0 {
		t.Errorf("dependency stats = %+v", dep)
	}
	conf := data.ByCategory["configuration"]
	if conf.Total != 1 || conf.Failed != 0 || conf.Percent != 100 {
		t.Errorf("configuration stats = %+v", conf)
	}

	if len(data.Skips) != 1 || data.Skips[0].Tool != "shellcheck" {
		t.Errorf("Skips = %+v", data.Skips)
	}
}

func TestToStats_EmptyDimension(t *testing.T) {
	stats := toStats(coverage.Summary{})
	if stats.Percent != 0 {
		t.Errorf("Percent = %f, want 0 for empty dimension", stats.Percent)
	}
}

func TestPrintSummary(t *testing.T) {
	data := buildMatrixData(2, 3, sampleReport())

	var buf bytes.Buffer
	printSummary(&buf, data)
	out := buf.String()

	for _, want := range []string{
		"Coverage matrix: 2 tools x 3 presets, 2 cells, 1 failing",
		"By category:",
		"By layer:",
		"By preset:",
		"Failures:",
		"ripgrep on alpine-container (cargo): ecosystem-rust/linker-missing -> no_option: no root and no sudo on this system",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
