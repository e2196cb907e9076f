package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/engine"
	"github.com/tsukumogami/naosu/internal/progress"
	"github.com/tsukumogami/naosu/internal/sysprofile"
	"github.com/tsukumogami/naosu/internal/telemetry"
)

var (
	installMethod     string
	installTimeout    time.Duration
	installApplyFixes bool
	installJSON       bool
)

var installCmd = &cobra.Command{
	Use:   "install <tool>...",
	Short: "Install a tool, executing its resolved plan",
	Long: `Resolve a tool against this machine and execute the plan: prerequisite
installs first, then the selected method's command.

When a command fails, its output is diagnosed against the failure
handlers and the remediation plan is shown. With --apply-fixes the
recommended step is executed and the install retried; each dependency
is installed at most once per run.

Examples:
  naosu install ripgrep
  naosu install ripgrep --apply-fixes
  naosu install ripgrep --method binary --timeout 10m`,
	Args: cobra.MinimumNArgs(1),
	Run:  runInstallCmd,
}

func init() {
	installCmd.Flags().StringVar(&installMethod, "method", "",
		"Pin an install method instead of selecting by preference")
	installCmd.Flags().DurationVar(&installTimeout, "timeout", 0,
		"Per-command timeout (default from NAOSU_EXEC_TIMEOUT)")
	installCmd.Flags().BoolVar(&installApplyFixes, "apply-fixes", false,
		"Execute the recommended remediation and retry on failure")
	installCmd.Flags().BoolVar(&installJSON, "json", false,
		"Output the install transcript in JSON format")
}

func runInstallCmd(cmd *cobra.Command, args []string) {
	client := telemetry.NewClient()
	telemetry.ShowNoticeIfNeeded()

	prof := loadProfile("")
	cat := loadCatalog()
	eng := buildEngine(cat, true)

	for _, tool := range args {
		if code := installOne(cmd.Context(), eng, prof, tool, client); code != ExitSuccess {
			// Exit on first failure so a broken environment is not
			// hammered once per tool.
			exitWithCode(code)
		}
	}
}

// installOne runs one tool's install and reports its exit code.
func installOne(ctx context.Context, eng *engine.Engine, prof *sysprofile.Profile, tool string, client *telemetry.Client) int {
	spin := progress.NewSpinner(os.Stderr)
	spin.Start(fmt.Sprintf("installing %s", tool))

	result, err := eng.Install(ctx, tool, prof, engine.InstallOptions{
		Method:     installMethod,
		Timeout:    installTimeout,
		ApplyFixes: installApplyFixes,
	})
	spin.Stop()

	if err != nil {
		printError(err)
		return exitCodeFor(err)
	}

	client.Send(telemetry.NewInstallEvent(tool, result.Resolution.Selected.Method, installStatus(result)))

	if installJSON {
		printJSON(result)
		if !result.Installed {
			return ExitExecFailed
		}
		return ExitSuccess
	}

	printInstallResult(os.Stdout, result)
	if !result.Installed {
		if plan := lastPlan(result); plan != nil {
			fmt.Println()
			printRemediation(os.Stdout, plan)
			if !installApplyFixes {
				fmt.Println()
				fmt.Printf("Rerun with --apply-fixes to execute the recommended step.\n")
			}
		}
		return ExitExecFailed
	}
	return ExitSuccess
}

// installStatus is the telemetry outcome: "ok", the diagnosed failure
// category, or "failed" when nothing matched.
func installStatus(result *engine.InstallResult) string {
	if result.Installed {
		return "ok"
	}
	if plan := lastPlan(result); plan != nil {
		return string(plan.Category)
	}
	return "failed"
}

// lastPlan returns the most recent diagnosis in the transcript.
func lastPlan(result *engine.InstallResult) *chain.Plan {
	for i := len(result.Attempts) - 1; i >= 0; i-- {
		if result.Attempts[i].Plan != nil {
			return result.Attempts[i].Plan
		}
	}
	return nil
}

// printInstallResult formats the executed transcript.
func printInstallResult(w io.Writer, result *engine.InstallResult) {
	res := result.Resolution
	fmt.Fprintf(w, "Installing %s via %s\n", res.Tool, res.Selected.Method)

	for i, a := range result.Attempts {
		fmt.Fprintf(w, "  %d. %s ... %s\n", i+1, a.Command, attemptOutcome(a))
		if a.Plan != nil {
			fmt.Fprintf(w, "     diagnosed: %s (%s)\n", a.Plan.Category, a.Plan.HandlerID)
		}
		if a.Fix != nil && a.Fix.Command != "" {
			fmt.Fprintf(w, "     fix: %s\n", a.Fix.Command)
		}
	}

	if result.Installed {
		fmt.Fprintf(w, "Installed %s.\n", res.Tool)
		return
	}

	fmt.Fprintf(w, "Failed to install %s.\n", res.Tool)
	if last := lastFailedOutput(result); last != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Last output:\n%s\n", last)
	}
}

// attemptOutcome renders one executed command's result.
func attemptOutcome(a engine.Attempt) string {
	if a.Output.TimedOut {
		return "timed out"
	}
	if a.Output.Failed() {
		return fmt.Sprintf("failed (exit %d)", a.Output.ExitCode)
	}
	return "ok"
}

// lastFailedOutput returns the captured output of the final failed
// command, truncated for display.
func lastFailedOutput(result *engine.InstallResult) string {
	for i := len(result.Attempts) - 1; i >= 0; i-- {
		if result.Attempts[i].Output.Failed() {
			out := result.Attempts[i].Output.Combined()
			if len(out) > 2000 {
				out = out[:2000] + " ..."
			}
			return out
		}
	}
	return ""
}
