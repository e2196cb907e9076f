package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/availability"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

var infoCmd = &cobra.Command{
	Use:   "info <tool>",
	Short: "Show detailed information about a tool's recipe",
	Long: `Show a tool's recipe: metadata, version source, and every install
method with its availability on this machine.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		toolName := args[0]

		cat := loadCatalog()
		rec, err := cat.Get(toolName)
		if err != nil {
			printError(err)
			exitWithCode(exitCodeFor(err))
		}

		fmt.Printf("Name:        %s\n", rec.Metadata.Name)
		fmt.Printf("Binary:      %s\n", rec.Metadata.Binary)
		if rec.Metadata.Description != "" {
			fmt.Printf("Description: %s\n", rec.Metadata.Description)
		}
		if rec.Metadata.Homepage != "" {
			fmt.Printf("Homepage:    %s\n", rec.Metadata.Homepage)
		}
		if rec.Version.GitHubRepo != "" {
			source := "github.com/" + rec.Version.GitHubRepo
			if rec.Version.Constraint != "" {
				source += fmt.Sprintf(" (constraint %s)", rec.Version.Constraint)
			}
			fmt.Printf("Versions:    %s\n", source)
		}
		if len(rec.Handlers) > 0 {
			fmt.Printf("Handlers:    %d recipe-specific failure handlers\n", len(rec.Handlers))
		}

		// Availability is best-effort: the recipe listing is still useful
		// on a machine the profiler cannot read.
		var statuses map[string]availability.Status
		if prof, err := sysprofile.Snapshot(); err == nil {
			if sts, err := availability.Statuses(rec, prof); err == nil {
				statuses = sts
			}
		}

		fmt.Println()
		fmt.Printf("Methods (in preference order):\n")
		for _, name := range rec.PreferOrder() {
			m, ok := rec.Method(name)
			if !ok {
				continue
			}
			line := fmt.Sprintf("  %-10s %-10s", name, string(m.Kind))
			if st, ok := statuses[name]; ok {
				line += " " + stateLabel(st)
			}
			fmt.Println(strings.TrimRight(line, " "))
		}
	},
}
