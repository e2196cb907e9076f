package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/spf13/cobra"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/config"
	"github.com/tsukumogami/naosu/internal/userconfig"
)

var (
	catalogSignature string
	catalogKeyFile   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import, verify, and trust recipe bundles",
	Long: `Manage recipe catalog bundles.

Bundles are tar archives of recipe files (.tar, .tar.gz, .tar.zst,
.tar.xz, .tar.lz) signed with a detached PGP signature. Imported
recipes land in the catalog directory and take precedence over the
embedded defaults.

Examples:
  naosu catalog trust publisher.asc
  naosu catalog verify recipes.tar.zst
  naosu catalog import recipes.tar.zst`,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <bundle>",
	Short: "Import recipes from a bundle",
	Long: `Validate a recipe bundle and copy its recipes into the catalog
directory.

When a signature is available the bundle is verified before anything
is written. A signature is looked for at <bundle>.asc, or at the path
given with --signature. Verification is mandatory once a key is pinned
with 'naosu config set catalog_key'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bundlePath := args[0]

		cfg, err := config.DefaultConfig()
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		userCfg, err := userconfig.Load()
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}

		if shouldVerify(bundlePath, userCfg.CatalogKey) {
			key := loadVerificationKey(cfg, userCfg.CatalogKey)
			verifyBundleSignature(bundlePath, key)
			printInfo("Signature OK")
		} else {
			fmt.Fprintf(os.Stderr, "Warning: importing unverified bundle (no signature found, no catalog_key pinned)\n")
		}

		if err := cfg.EnsureDirectories(); err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}

		names, err := catalog.ImportBundle(bundlePath, cfg.CatalogDir)
		if err != nil {
			printError(err)
			exitWithCode(exitCodeFor(err))
		}

		fmt.Printf("Imported %d recipes into %s:\n", len(names), cfg.CatalogDir)
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	},
}

var catalogVerifyCmd = &cobra.Command{
	Use:   "verify <bundle>",
	Short: "Verify a bundle signature and list its contents",
	Long: `Check a bundle's detached PGP signature and list the recipes it
contains. Nothing is imported.

The signature is looked for at <bundle>.asc unless --signature names
another path. The key comes from --key, or from the key cache when a
fingerprint is pinned with 'naosu config set catalog_key'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bundlePath := args[0]

		cfg, err := config.DefaultConfig()
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		userCfg, err := userconfig.Load()
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}

		key := loadVerificationKey(cfg, userCfg.CatalogKey)
		verifyBundleSignature(bundlePath, key)
		fmt.Printf("Signature OK (key %s)\n", catalog.FormatFingerprint(key.GetFingerprint()))

		cat, err := catalog.LoadBundle(bundlePath)
		if err != nil {
			printError(err)
			exitWithCode(exitCodeFor(err))
		}
		fmt.Printf("\nBundle contains %d recipes:\n", cat.Len())
		for _, name := range cat.Names() {
			rec, err := cat.Get(name)
			if err != nil {
				continue
			}
			fmt.Printf("  %-20s  %s\n", name, rec.Metadata.Description)
		}
	},
}

var catalogTrustCmd = &cobra.Command{
	Use:   "trust <key.asc>",
	Short: "Cache a bundle signing key",
	Long: `Parse an armored PGP public key and cache it under the key cache
directory, named by its fingerprint. Cached keys are used to verify
bundles when their fingerprint is pinned with
'naosu config set catalog_key'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		keyPath := args[0]

		armored, err := os.ReadFile(keyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read key file: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		key, err := catalog.LoadSigningKey(string(armored), "")
		if err != nil {
			printError(err)
			exitWithCode(ExitConfig)
		}
		fp := strings.ToUpper(key.GetFingerprint())

		cfg, err := config.DefaultConfig()
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}

		cached := filepath.Join(cfg.KeyCacheDir, fp+".asc")
		if err := os.WriteFile(cached, armored, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to cache key: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		fmt.Printf("Trusted signing key %s\n", catalog.FormatFingerprint(fp))
		fmt.Printf("Cached at %s\n", cached)
		fmt.Printf("\nRequire it for bundle imports with:\n")
		fmt.Printf("  naosu config set catalog_key %s\n", fp)
	},
}

// shouldVerify reports whether a bundle import must check a signature:
// always when a key is pinned, otherwise when a signature is present.
func shouldVerify(bundlePath, pinnedFP string) bool {
	if pinnedFP != "" || catalogKeyFile != "" || catalogSignature != "" {
		return true
	}
	_, err := os.Stat(bundlePath + ".asc")
	return err == nil
}

// loadVerificationKey returns the signing key from --key or the key
// cache. Exits with an appropriate error message when none is available.
func loadVerificationKey(cfg *config.Config, pinnedFP string) *crypto.Key {
	if catalogKeyFile != "" {
		armored, err := os.ReadFile(catalogKeyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read key file: %v\n", err)
			exitWithCode(ExitGeneral)
		}
		key, err := catalog.LoadSigningKey(string(armored), pinnedFP)
		if err != nil {
			printError(err)
			exitWithCode(ExitConfig)
		}
		return key
	}

	if pinnedFP == "" {
		fmt.Fprintf(os.Stderr, "Error: no signing key available\n")
		fmt.Fprintf(os.Stderr, "\nPass one with --key, or pin a trusted key:\n")
		fmt.Fprintf(os.Stderr, "  naosu catalog trust <key.asc>\n")
		fmt.Fprintf(os.Stderr, "  naosu config set catalog_key <fingerprint>\n")
		exitWithCode(ExitUsage)
	}

	fp, err := catalog.ParseFingerprint(pinnedFP)
	if err != nil {
		printError(err)
		exitWithCode(ExitConfig)
	}
	cached := filepath.Join(cfg.KeyCacheDir, fp+".asc")
	armored, err := os.ReadFile(cached)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: pinned key %s is not cached\n", catalog.FormatFingerprint(fp))
		fmt.Fprintf(os.Stderr, "\nCache it with: naosu catalog trust <key.asc>\n")
		exitWithCode(ExitConfig)
	}
	key, err := catalog.LoadSigningKey(string(armored), fp)
	if err != nil {
		printError(err)
		exitWithCode(ExitConfig)
	}
	return key
}

// verifyBundleSignature checks the detached signature next to the
// bundle (or at --signature) and exits on any failure.
func verifyBundleSignature(bundlePath string, key *crypto.Key) {
	sigPath := catalogSignature
	if sigPath == "" {
		sigPath = bundlePath + ".asc"
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read signature %s: %v\n", sigPath, err)
		exitWithCode(ExitConfig)
	}
	if err := catalog.VerifyBundle(bundlePath, sig, key); err != nil {
		printError(err)
		exitWithCode(exitCodeFor(err))
	}
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogVerifyCmd)
	catalogCmd.AddCommand(catalogTrustCmd)

	catalogImportCmd.Flags().StringVar(&catalogSignature, "signature", "", "Path to the detached signature (default <bundle>.asc)")
	catalogImportCmd.Flags().StringVar(&catalogKeyFile, "key", "", "Path to the armored signing key")
	catalogVerifyCmd.Flags().StringVar(&catalogSignature, "signature", "", "Path to the detached signature (default <bundle>.asc)")
	catalogVerifyCmd.Flags().StringVar(&catalogKeyFile, "key", "", "Path to the armored signing key")
}
