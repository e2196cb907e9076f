// Command coverage-matrix checks the remediation coverage property over
// the whole catalog: every declared failure scenario, on every system
// preset, must diagnose to a handler whose plan has an actionable step.
// Catalog authors run it before shipping recipes; CI fails the build on
// any uncovered cell.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/coverage"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

// MatrixData is the output JSON structure for catalog tooling.
type MatrixData struct {
	GeneratedAt string                  `json:"generated_at"`
	Tools       int                     `json:"tools"`
	Presets     int                     `json:"presets"`
	Cells       int                     `json:"cells"`
	Failed      int                     `json:"failed"`
	ByCategory  map[string]SummaryStats `json:"by_category"`
	ByLayer     map[string]SummaryStats `json:"by_layer"`
	ByPreset    map[string]SummaryStats `json:"by_preset"`
	Failures    []CellInfo              `json:"failures"`
	Skips       []SkipInfo              `json:"skips,omitempty"`
}

// SummaryStats aggregates one report dimension.
type SummaryStats struct {
	Total   int     `json:"total"`
	Failed  int     `json:"failed"`
	Percent float64 `json:"pct"`
}

// CellInfo describes one failing matrix cell.
type CellInfo struct {
	Tool       string `json:"tool"`
	Preset     string `json:"preset"`
	Method     string `json:"method"`
	ScenarioID string `json:"scenario_id"`
	MatchedID  string `json:"matched_id,omitempty"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
}

// SkipInfo describes a (tool, preset) pair with no cells.
type SkipInfo struct {
	Tool   string `json:"tool"`
	Preset string `json:"preset"`
	Reason string `json:"reason"`
}

func main() {
	recipesDir := flag.String("recipes", "", "extra recipe directory layered over the embedded catalog")
	output := flag.String("output", "", "write the full JSON report to this file")
	flag.Parse()

	cat, err := loadMatrixCatalog(*recipesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	reg, err := cat.BuildRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building handler registry: %v\n", err)
		os.Exit(1)
	}

	presets, err := sysprofile.LoadPresets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading presets: %v\n", err)
		os.Exit(1)
	}

	report, err := coverage.New(cat, reg, presets).Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running matrix: %v\n", err)
		os.Exit(1)
	}

	data := buildMatrixData(cat.Len(), len(presets), report)

	if *output != "" {
		if err := writeJSON(*output, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Coverage report written: %s\n", *output)
	}

	printSummary(os.Stdout, data)

	if !report.Passed() {
		os.Exit(1)
	}
}

func buildMatrixData(tools, presets int, report *coverage.Report) MatrixData {
	data := MatrixData{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Tools:       tools,
		Presets:     presets,
		Cells:       len(report.Cells),
		Failed:      len(report.Failures()),
		ByCategory:  map[string]SummaryStats{},
		ByLayer:     map[string]SummaryStats{},
		ByPreset:    map[string]SummaryStats{},
	}

	for category, s := range report.ByCategory() {
		data.ByCategory[string(category)] = toStats(s)
	}
	for layer, s := range report.ByLayer() {
		data.ByLayer[layer] = toStats(s)
	}
	for preset, s := range report.ByPreset() {
		data.ByPreset[preset] = toStats(s)
	}

	for _, c := range report.Failures() {
		data.Failures = append(data.Failures, CellInfo{
			Tool:       c.Tool,
			Preset:     c.Preset,
			Method:     c.Method,
			ScenarioID: c.ScenarioID,
			MatchedID:  c.MatchedID,
			Outcome:    string(c.Outcome),
			Detail:     c.Detail,
		})
	}
	sort.Slice(data.Failures, func(i, j int) bool {
		if data.Failures[i].Tool != data.Failures[j].Tool {
			return data.Failures[i].Tool < data.Failures[j].Tool
		}
		return data.Failures[i].Preset < data.Failures[j].Preset
	})

	for _, s := range report.Skips {
		data.Skips = append(data.Skips, SkipInfo{Tool: s.Tool, Preset: s.Preset, Reason: s.Reason})
	}

	return data
}

func toStats(s coverage.Summary) SummaryStats {
	stats := SummaryStats{Total: s.Total, Failed: s.Failed}
	if s.Total > 0 {
		stats.Percent = float64(s.Total-s.Failed) / float64(s.Total) * 100
	}
	return stats
}

func printSummary(w io.Writer, data MatrixData) {
	fmt.Fprintf(w, "Coverage matrix: %d tools x %d presets, %d cells, %d failing\n",
		data.Tools, data.Presets, data.Cells, data.Failed)

	printDimension(w, "By category:", data.ByCategory)
	printDimension(w, "By layer:", data.ByLayer)
	printDimension(w, "By preset:", data.ByPreset)

	if len(data.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, f := range data.Failures {
			fmt.Fprintf(w, "  %s on %s (%s): %s -> %s", f.Tool, f.Preset, f.Method, f.ScenarioID, f.Outcome)
			if f.Detail != "" {
				fmt.Fprintf(w, ": %s", f.Detail)
			}
			fmt.Fprintln(w)
		}
	}
}

func printDimension(w io.Writer, title string, stats map[string]SummaryStats) {
	if len(stats) == 0 {
		return
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n%s\n", title)
	for _, k := range keys {
		s := stats[k]
		fmt.Fprintf(w, "  %-16s %4d cells, %d failing (%.1f%% covered)\n", k, s.Total, s.Failed, s.Percent)
	}
}

func loadMatrixCatalog(dir string) (*catalog.Catalog, error) {
	cat, err := catalog.Embedded()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return cat, nil
	}
	extra, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return cat.Merge(extra), nil
}

func writeJSON(path string, data interface{}) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Marshal with indentation
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(path, append(output, '\n'), 0644)
}
