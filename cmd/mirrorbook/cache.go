package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kerbaras/mirrorbook/pkg/app/components"
	"github.com/kerbaras/mirrorbook/pkg/cache"
	"github.com/kerbaras/mirrorbook/pkg/data"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the fetch cache",
}

var cacheKeyCmd = &cobra.Command{
	Use:   "key <url>",
	Short: "Print the cache filename of a URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cache.Key(args[0]))
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List everything recorded in the fetch catalog",
	Long:  "Display the fetch catalog in a formatted table. Requires catalog_path to be configured.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(os.Stderr, slog.LevelInfo)
		cfg := loadConfig(logger)

		if cfg.CatalogPath == "" {
			fmt.Println("📭 No catalog configured. Set catalog_path to record fetches.")
			return
		}

		repo, err := data.OpenRepository(cfg.CatalogPath)
		cobra.CheckErr(err)
		defer repo.Close()

		entries, err := repo.ListEntries()
		cobra.CheckErr(err)

		if len(entries) == 0 {
			fmt.Println("📭 Catalog is empty. Use 'mirrorbook fetch' to fill the cache.")
			return
		}

		catalog := components.NewCatalogTable(entries)
		fmt.Printf("\n🗂  Cache (%d entries, %s)\n\n", len(entries), components.FormatSize(catalog.TotalSize()))
		fmt.Println(catalog.View())
	},
}

func init() {
	cacheCmd.AddCommand(cacheKeyCmd)
	cacheCmd.AddCommand(cacheListCmd)
}
