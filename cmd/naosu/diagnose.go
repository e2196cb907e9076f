package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/engine"
	"github.com/tsukumogami/naosu/internal/handler"
	"github.com/tsukumogami/naosu/internal/telemetry"
)

var (
	diagnoseMethod   string
	diagnoseFromFile string
	diagnosePreset   string
	diagnoseJSON     bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <tool>",
	Short: "Turn a failed install's output into remediation steps",
	Long: `Match captured install output against the failure handlers and expand
the winning entry into a remediation plan. Nothing is executed.

The output is read from stdin by default; use --from-file to read a
saved capture.

Examples:
  apt-get install -y ripgrep 2>&1 | naosu diagnose ripgrep --method apt
  naosu diagnose ripgrep --method cargo --from-file build.log
  naosu diagnose jq --method apt --preset debian-container --from-file out.txt`,
	Args: cobra.ExactArgs(1),
	Run:  runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseMethod, "method", "",
		"Install method that produced the output (required)")
	diagnoseCmd.Flags().StringVar(&diagnoseFromFile, "from-file", "-",
		"Read the captured output from a file ('-' for stdin)")
	diagnoseCmd.Flags().StringVar(&diagnosePreset, "preset", "",
		"Diagnose against a named profile preset instead of this machine")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "Output in JSON format")
}

func runDiagnose(cmd *cobra.Command, args []string) {
	tool := args[0]

	if diagnoseMethod == "" {
		fmt.Fprintf(os.Stderr, "Error: --method is required\n")
		fmt.Fprintf(os.Stderr, "\nDiagnosis is method-aware; name the method whose command failed:\n")
		fmt.Fprintf(os.Stderr, "  naosu diagnose %s --method apt\n", tool)
		exitWithCode(ExitUsage)
	}

	output, err := readDiagnoseInput(diagnoseFromFile, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	if strings.TrimSpace(output) == "" {
		fmt.Fprintf(os.Stderr, "Error: no output to diagnose\n")
		fmt.Fprintf(os.Stderr, "\nPipe the failed command's output in:\n")
		fmt.Fprintf(os.Stderr, "  apt-get install -y %s 2>&1 | naosu diagnose %s --method apt\n", tool, tool)
		exitWithCode(ExitUsage)
	}

	client := telemetry.NewClient()
	telemetry.ShowNoticeIfNeeded()

	prof := loadProfile(diagnosePreset)
	cat := loadCatalog()
	eng := buildEngine(cat, true)

	plan, err := eng.Diagnose(cmd.Context(), tool, diagnoseMethod, output, prof)
	if err != nil {
		var unhandled *engine.UnhandledFailureError
		if errors.As(err, &unhandled) {
			client.Send(telemetry.NewDiagnoseEvent(tool, diagnoseMethod, "no_match", 0))
		}
		printError(err)
		exitWithCode(exitCodeFor(err))
	}
	client.Send(telemetry.NewDiagnoseEvent(tool, diagnoseMethod, string(plan.Category), planChainDepth(plan)))

	if diagnoseJSON {
		printJSON(plan)
		return
	}
	printRemediation(os.Stdout, plan)
}

// readDiagnoseInput reads captured output from a file path or stdin.
// If path is "-", reads from stdin.
func readDiagnoseInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read output from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read output file: %w", err)
	}
	return string(data), nil
}

// planChainDepth measures the longest prerequisite chain a plan's steps
// schedule. Zero means no step installs anything.
func planChainDepth(plan *chain.Plan) int {
	depth := 0
	for _, s := range plan.Steps {
		if s.Install == nil {
			continue
		}
		if n := len(s.Install.Sequence()); n > depth {
			depth = n
		}
	}
	return depth
}

// printRemediation formats a remediation plan in human-readable form.
func printRemediation(w io.Writer, plan *chain.Plan) {
	fmt.Fprintf(w, "Failure installing %s via %s: %s\n", plan.Tool, plan.Method, plan.Category)
	fmt.Fprintf(w, "Matched handler: %s (%s layer)\n", plan.HandlerID, plan.Layer)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Remediation options (%d):\n", len(plan.Steps))
	for i, s := range plan.Steps {
		printRemediationStep(w, i+1, s)
	}

	if step, ok := plan.Recommended(); ok {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Recommended: %s\n", stepTitle(step))
	}
}

// printRemediationStep formats a single remediation option.
func printRemediationStep(w io.Writer, num int, s chain.Step) {
	mark := ""
	if s.Option.Recommended {
		mark = " (recommended)"
	}
	fmt.Fprintf(w, "  %d. %s%s\n", num, stepTitle(s), mark)

	if s.Readiness == chain.ReadinessImpossible {
		fmt.Fprintf(w, "     not possible here: %s\n", s.Reason)
		return
	}

	switch s.Option.Strategy {
	case handler.StrategyInstallDependency:
		if s.Install != nil {
			for _, node := range s.Install.Sequence() {
				fmt.Fprintf(w, "     install %s: %s%s\n",
					node.Tool, node.Command, sudoSuffix(node.NeedsSudo))
			}
		}
		if s.Command != "" {
			fmt.Fprintf(w, "     then retry: %s\n", s.Command)
		}
	case handler.StrategyManual:
		fmt.Fprintf(w, "     %s\n", s.Option.Instruction)
	default:
		if s.Command != "" {
			fmt.Fprintf(w, "     run: %s\n", s.Command)
		}
	}
	if s.Option.Note != "" {
		fmt.Fprintf(w, "     note: %s\n", s.Option.Note)
	}
}

// stepTitle names a remediation step by what it does.
func stepTitle(s chain.Step) string {
	switch s.Option.Strategy {
	case handler.StrategyInstallDependency:
		return fmt.Sprintf("install %s first", s.Option.Tool)
	case handler.StrategyRetryElevated:
		return "retry with elevation"
	case handler.StrategyRetryModified:
		return "retry with a modified command"
	case handler.StrategyAddRepository:
		return "enable a package repository and retry"
	case handler.StrategyFixEnvironment:
		return "adjust the environment and retry"
	case handler.StrategyManual:
		return "manual step"
	default:
		return string(s.Option.Strategy)
	}
}
