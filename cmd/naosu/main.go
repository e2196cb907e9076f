package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/buildinfo"
	"github.com/tsukumogami/naosu/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "naosu",
	Short: "Resolve, plan, and repair CLI tool installs",
	Long: `naosu answers three questions about CLI tools: which install methods
work on this machine, what exact commands an install takes including
prerequisites, and what to do when an install command fails.

Resolution and diagnosis never touch the system; only 'naosu install'
executes commands.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// isTruthy reports whether an environment variable value means "on".
func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// determineLogLevel picks the diagnostic verbosity. Flags win over
// environment variables; among flags, debug beats verbose beats quiet.
func determineLogLevel() slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	if verboseFlag {
		return slog.LevelInfo
	}
	if quietFlag {
		return slog.LevelError
	}
	if isTruthy(os.Getenv("NAOSU_DEBUG")) {
		return slog.LevelDebug
	}
	if isTruthy(os.Getenv("NAOSU_VERBOSE")) {
		return slog.LevelInfo
	}
	if isTruthy(os.Getenv("NAOSU_QUIET")) {
		return slog.LevelError
	}
	return slog.LevelWarn
}

// setupLogging installs the global logger. Diagnostics go to stderr so
// stdout stays parseable.
func setupLogging() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: determineLogLevel(),
	})
	log.SetDefault(log.New(handler))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log operational context")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log internal state for troubleshooting")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(recipesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
