package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/config"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the naosu environment is configured correctly",
	Long: `Verify that the naosu environment is healthy: home directory is usable,
the recipe catalog loads, the system profile can be detected, and the
machine can actually run installs.

Exits with a non-zero status if any check fails, making it suitable
for use as a gate in scripts and CI:

  naosu doctor || exit 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return fmt.Errorf("failed to get config: %w", err)
		}

		fmt.Println("Checking naosu environment...")
		failed := false

		// Check 1: Home directory
		fmt.Fprintf(os.Stdout, "  Home directory: %s", cfg.HomeDir)
		if info, err := os.Stat(cfg.HomeDir); os.IsNotExist(err) {
			fmt.Println(" ... ok (created on first use)")
		} else if err != nil {
			fmt.Println(" ... FAIL")
			fmt.Fprintf(os.Stderr, "    Cannot access home directory: %v\n", err)
			failed = true
		} else if !info.IsDir() {
			fmt.Println(" ... FAIL")
			fmt.Fprintf(os.Stderr, "    Path exists but is not a directory\n")
			failed = true
		} else {
			fmt.Println(" ... ok")
		}

		// Check 2: Recipe catalog
		fmt.Fprintf(os.Stdout, "  Recipe catalog")
		cat, err := catalog.Load(cfg)
		if err != nil {
			fmt.Println(" ... FAIL")
			fmt.Fprintf(os.Stderr, "    %v\n", err)
			fmt.Fprintf(os.Stderr, "    Check the recipes under %s\n", cfg.CatalogDir)
			failed = true
		} else {
			fmt.Printf(" ... ok (%d recipes)\n", cat.Len())
		}

		// Check 3: System profile
		fmt.Fprintf(os.Stdout, "  System profile")
		prof, err := sysprofile.Snapshot()
		if err != nil {
			fmt.Println(" ... FAIL")
			fmt.Fprintf(os.Stderr, "    Cannot detect this machine: %v\n", err)
			failed = true
		} else {
			fmt.Printf(" ... ok (%s)\n", prof.String())
		}

		if prof != nil {
			// Check 4: Package manager
			fmt.Fprintf(os.Stdout, "  Package manager")
			if len(prof.PackageManagers) > 0 {
				fmt.Printf(" ... ok (%s)\n", strings.Join(prof.PackageManagers, ", "))
			} else {
				fmt.Println(" ... FAIL")
				fmt.Fprintf(os.Stderr, "    No package manager detected\n")
				fmt.Fprintf(os.Stderr, "    Native package methods will be impossible; script and binary methods still work\n")
				failed = true
			}

			// Check 5: Elevation
			fmt.Fprintf(os.Stdout, "  Elevation")
			switch {
			case prof.IsRoot:
				fmt.Println(" ... ok (running as root)")
			case prof.HasSudo:
				fmt.Println(" ... ok (sudo available)")
			default:
				fmt.Println(" ... FAIL")
				fmt.Fprintf(os.Stderr, "    Neither root nor sudo; commands that write system areas will fail\n")
				fmt.Fprintf(os.Stderr, "    Install sudo or run naosu as root for system package methods\n")
				failed = true
			}
		}

		// Check 6: GitHub API quota (informational, never fails)
		fmt.Fprintf(os.Stdout, "  GitHub API")
		if os.Getenv("GITHUB_TOKEN") != "" {
			fmt.Println(" ... ok (authenticated, 5000 requests/hour)")
		} else {
			fmt.Println(" ... ok (unauthenticated, 60 requests/hour)")
		}

		// Summary
		if failed {
			fmt.Println()
			return fmt.Errorf("environment check failed")
		}

		fmt.Println()
		fmt.Println("Everything looks good!")
		return nil
	},
}
