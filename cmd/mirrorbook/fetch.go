package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kerbaras/mirrorbook/pkg/services"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror the index, its pages and their images into the cache",
	Long: `Resolve the index page and fetch every chapter page and every image they
reference into the cache directory. Nothing is staged or packaged.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(os.Stderr, slog.LevelInfo)
		cfg := loadConfig(logger)

		controller, err := services.NewController(cfg, logger)
		cobra.CheckErr(err)
		defer controller.Close()

		fmt.Printf("🔍 Resolving index %s\n", cfg.IndexURL)
		pages, err := controller.Pipeline.Mirror(cmd.Context())
		if err != nil {
			cobra.CheckErr(fmt.Errorf("mirror failed: %w", err))
		}

		fmt.Printf("✅ %d chapters cached in %s\n", len(pages), controller.Fetcher.Dir())
	},
}
