package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/version"
)

var versionsLimit int

var versionsCmd = &cobra.Command{
	Use:   "versions <tool>",
	Short: "List release versions for a tool",
	Long: `List the stable release versions for a tool, newest first, from the
recipe's GitHub source. Pre-releases and drafts are skipped.

A GITHUB_TOKEN in the environment raises the API quota from 60 to
5000 requests per hour.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		toolName := args[0]

		cat := loadCatalog()
		rec, err := cat.Get(toolName)
		if err != nil {
			printError(err)
			exitWithCode(exitCodeFor(err))
		}

		repo := rec.Version.GitHubRepo
		if repo == "" {
			fmt.Fprintf(os.Stderr, "Error: recipe %q names no version source\n", toolName)
			fmt.Fprintf(os.Stderr, "\nOnly recipes with version.github_repo can list versions.\n")
			exitWithCode(ExitConfig)
		}

		res := version.New()
		printInfof("Fetching versions for %s (github.com/%s)...\n\n", toolName, repo)

		infos, err := res.List(cmd.Context(), repo)
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		shown := infos
		if versionsLimit > 0 && len(shown) > versionsLimit {
			shown = shown[:versionsLimit]
		}

		fmt.Printf("Stable versions (%d of %d, newest first):\n", len(shown), len(infos))
		for _, info := range shown {
			fmt.Printf("  %-14s tag %s\n", info.Version, info.Tag)
		}

		if c := rec.Version.Constraint; c != "" {
			if pick, err := res.Satisfying(cmd.Context(), repo, c); err == nil {
				fmt.Println()
				fmt.Printf("Constraint %q selects %s\n", c, pick.Version)
			}
		}
	},
}

func init() {
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 20, "Maximum number of versions to show (0 for all)")
}
