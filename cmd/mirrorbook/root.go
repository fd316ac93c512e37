package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mirrorbook",
	Short: "Turn a web article series into an e-book",
	Long: `Mirror the ordered article series linked from a site's index page,
rewrite every page for offline reading and package the result as an e-book.

Fetched pages and images are cached on disk and never requested twice.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.ProjectConfigFile+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the configuration for the running command
func loadConfig(logger *slog.Logger) *config.Config {
	cfg, err := config.NewLoader(logger).Load(configPath)
	cobra.CheckErr(err)
	return cfg
}
