package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/chain"
	"github.com/tsukumogami/naosu/internal/config"
	"github.com/tsukumogami/naosu/internal/engine"
	"github.com/tsukumogami/naosu/internal/errmsg"
	"github.com/tsukumogami/naosu/internal/log"
	"github.com/tsukumogami/naosu/internal/sysprofile"
	"github.com/tsukumogami/naosu/internal/version"
)

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}

// printError prints an error to stderr with suggestions if available.
// This uses the errmsg package to format errors with actionable suggestions.
func printError(err error) {
	errmsg.Fprint(os.Stderr, err)
}

// loadCatalog loads the embedded catalog plus any user overlays.
// Returns the catalog or exits with an appropriate error message.
func loadCatalog() *catalog.Catalog {
	cfg, err := config.DefaultConfig()
	if err != nil {
		printError(err)
		exitWithCode(ExitGeneral)
	}
	cat, err := catalog.Load(cfg)
	if err != nil {
		printError(err)
		exitWithCode(exitCodeFor(err))
	}
	return cat
}

// buildEngine assembles the engine on a loaded catalog. The GitHub
// version resolver backs {version} templates; pass withVersions=false
// for commands that must stay offline.
// Returns the engine or exits with an appropriate error message.
func buildEngine(cat *catalog.Catalog, withVersions bool) *engine.Engine {
	reg, err := cat.BuildRegistry()
	if err != nil {
		printError(err)
		exitWithCode(exitCodeFor(err))
	}
	var versions chain.VersionSource
	if withVersions {
		versions = version.New().RecipeVersion
	}
	eng, err := engine.New(engine.Config{
		Catalog:  cat,
		Handlers: reg,
		Versions: versions,
		Logger:   log.Default(),
	})
	if err != nil {
		printError(err)
		exitWithCode(ExitGeneral)
	}
	return eng
}

// loadProfile returns the system profile resolution runs against: a
// named preset when given, the live machine snapshot otherwise.
// Returns the profile or exits with an appropriate error message.
func loadProfile(preset string) *sysprofile.Profile {
	if preset != "" {
		prof, err := sysprofile.Preset(preset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			presets, perr := sysprofile.LoadPresets()
			if perr == nil {
				fmt.Fprintf(os.Stderr, "\nAvailable presets:\n")
				for _, name := range sysprofile.PresetNames(presets) {
					fmt.Fprintf(os.Stderr, "  %s\n", name)
				}
			}
			exitWithCode(ExitUsage)
		}
		return prof
	}
	prof, err := sysprofile.Snapshot()
	if err != nil {
		printError(err)
		exitWithCode(ExitGeneral)
	}
	return prof
}
