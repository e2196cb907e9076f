package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/engine"
	"github.com/tsukumogami/naosu/internal/telemetry"
)

var planJSON bool
var planPreset string

var planCmd = &cobra.Command{
	Use:   "plan <tool>...",
	Short: "Show how a tool would be installed on this system",
	Long: `Resolve every install method for a tool against this machine and show
the full plan: per-method availability, the selected method, the exact
command, and any prerequisite installs scheduled first.

Nothing is executed. Use 'naosu install' to run the plan.

Examples:
  naosu plan ripgrep
  naosu plan ripgrep jq --json
  naosu plan ripgrep --preset alpine-container`,
	Args: cobra.MinimumNArgs(1),
	Run:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output in JSON format")
	planCmd.Flags().StringVar(&planPreset, "preset", "",
		"Resolve against a named profile preset instead of this machine")
}

// planReport is one tool's entry in multi-tool JSON output.
type planReport struct {
	Tool       string             `json:"tool"`
	Error      string             `json:"error,omitempty"`
	Resolution *engine.Resolution `json:"resolution,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) {
	client := telemetry.NewClient()
	telemetry.ShowNoticeIfNeeded()

	prof := loadProfile(planPreset)
	cat := loadCatalog()
	eng := buildEngine(cat, true)

	if len(args) == 1 {
		res, err := eng.ResolveAndPlan(cmd.Context(), args[0], prof)
		if err != nil {
			sendResolveFailure(client, args[0], err)
			printError(err)
			exitWithCode(exitCodeFor(err))
		}
		client.Send(telemetry.NewResolveEvent(res.Tool, res.Selected.Method, string(res.Selected.Status.State)))
		if planJSON {
			printJSON(res)
			return
		}
		printResolution(os.Stdout, cat, res)
		return
	}

	results, err := eng.ResolveAll(cmd.Context(), args, prof)
	if err != nil {
		printError(err)
		exitWithCode(ExitGeneral)
	}

	exitCode := ExitSuccess
	reports := make([]planReport, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			sendResolveFailure(client, r.Tool, r.Err)
			reports = append(reports, planReport{Tool: r.Tool, Error: r.Err.Error()})
			if !planJSON {
				printError(r.Err)
			}
			if exitCode == ExitSuccess {
				exitCode = exitCodeFor(r.Err)
			}
			continue
		}
		client.Send(telemetry.NewResolveEvent(r.Tool, r.Resolution.Selected.Method,
			string(r.Resolution.Selected.Status.State)))
		reports = append(reports, planReport{Tool: r.Tool, Resolution: r.Resolution})
		if !planJSON {
			if i > 0 {
				fmt.Println()
			}
			printResolution(os.Stdout, cat, r.Resolution)
		}
	}
	if planJSON {
		printJSON(reports)
	}
	if exitCode != ExitSuccess {
		exitWithCode(exitCode)
	}
}

// sendResolveFailure reports a failed resolution. Only the outcome the
// selector could reach is interesting; catalog misses and config errors
// are not usage signals.
func sendResolveFailure(client *telemetry.Client, tool string, err error) {
	var none *availability.NoneAvailableError
	if errors.As(err, &none) {
		client.Send(telemetry.NewResolveEvent(tool, "", "none_available"))
	}
}

// printResolution formats a resolution in human-readable form.
func printResolution(w io.Writer, cat *catalog.Catalog, res *engine.Resolution) {
	fmt.Fprintf(w, "%s\n\n", res.Tool)

	// Methods in the recipe's preference order so the listing explains
	// why the selected one won.
	fmt.Fprintf(w, "Methods:\n")
	for _, name := range methodOrder(cat, res) {
		st, ok := res.Statuses[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-10s %s\n", name, stateLabel(st))
	}
	fmt.Fprintln(w)

	sel := res.Selected
	if sel.Locked() {
		fmt.Fprintf(w, "Selected: %s (locked: %s)\n", sel.Method, sel.Status.Unlock.Reason)
	} else {
		fmt.Fprintf(w, "Selected: %s (%s)\n", sel.Method, sel.Status.State)
	}
	fmt.Fprintf(w, "Command:  %s%s\n", res.Plan.Command, sudoSuffix(res.Plan.NeedsSudo))
	if len(res.Plan.SystemPackages) > 0 {
		fmt.Fprintf(w, "System packages: %s\n", formatList(res.Plan.SystemPackages))
	}

	prereqs := prereqSequence(res.Plan)
	if len(prereqs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Prerequisites (run first):\n")
		for i, pre := range prereqs {
			fmt.Fprintf(w, "  %d. %s via %s: %s%s\n",
				i+1, pre.Tool, pre.Method, pre.Command, sudoSuffix(pre.NeedsSudo))
		}
	}
}

// methodOrder returns the recipe's preference order, falling back to the
// status map when the recipe has gone missing between calls.
func methodOrder(cat *catalog.Catalog, res *engine.Resolution) []string {
	rec, err := cat.Get(res.Tool)
	if err == nil {
		return rec.PreferOrder()
	}
	names := make([]string, 0, len(res.Statuses))
	for name := range res.Statuses {
		names = append(names, name)
	}
	return names
}

// stateLabel renders one method's availability for the listing.
func stateLabel(st availability.Status) string {
	switch st.State {
	case availability.StateReady:
		return "ready"
	case availability.StateLocked:
		if st.Unlock != nil {
			return fmt.Sprintf("locked      %s", st.Unlock.Reason)
		}
		return "locked"
	default:
		return fmt.Sprintf("impossible  %s", st.Reason)
	}
}

// sudoSuffix annotates commands that run elevated.
func sudoSuffix(needsSudo bool) string {
	if needsSudo {
		return "  (needs sudo)"
	}
	return ""
}

// prereqSequence flattens a plan's prerequisite installs into execution
// order, excluding the plan's own tool.
func prereqSequence(plan *chain.InstallPlan) []*chain.InstallPlan {
	var out []*chain.InstallPlan
	for _, pre := range plan.Prereqs {
		out = append(out, pre.Sequence()...)
	}
	return out
}

// formatList joins a slice with commas
func formatList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	if len(items) == 1 {
		return items[0]
	}
	result := items[0]
	for i := 1; i < len(items); i++ {
		result += ", " + items[i]
	}
	return result
}
