package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List available recipes",
	Long: `List every recipe in the catalog: the embedded collection plus any
user recipes under $NAOSU_HOME/catalog and $NAOSU_CATALOG_DIR.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cat := loadCatalog()

		fmt.Printf("Available recipes (%d total):\n\n", cat.Len())
		for _, name := range cat.Names() {
			rec, err := cat.Get(name)
			if err != nil {
				continue
			}
			fmt.Printf("  %-20s  %s\n", name, rec.Metadata.Description)
		}
	},
}
