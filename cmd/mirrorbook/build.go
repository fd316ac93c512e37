package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kerbaras/mirrorbook/pkg/app"
	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/kerbaras/mirrorbook/pkg/services"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Mirror the series and stage it for packaging",
	Long: `Mirror the series, assemble it oldest chapter first into the staging
directory and package it.

With --strict (the default) the packager runs and any failure is fatal.
Use --strict=false to only print the packaging command.

Examples:
  mirrorbook build
  mirrorbook build --strategy chapters --strict=false
  mirrorbook build --backend epub --tui`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		useTUI, _ := cmd.Flags().GetBool("tui")

		level := slog.LevelInfo
		if useTUI {
			level = slog.LevelWarn
		}
		logger := newLogger(os.Stderr, level)
		cfg := loadConfig(logger)
		cobra.CheckErr(applyBuildFlags(cmd, cfg))

		controller, err := services.NewController(cfg, logger)
		cobra.CheckErr(err)

		var (
			result *services.Result
			manual bytes.Buffer
		)
		controller.Pipeline.SetOutput(&manual)

		if useTUI {
			result, err = app.NewApp(controller.Pipeline).Run(cmd.Context())
		} else {
			fmt.Printf("📚 Building %s (%s)\n", cfg.Book.Title, cfg.Book.Strategy)
			done := followProgress(os.Stdout, controller.Pipeline.GetProgressChannel())
			result, err = controller.Pipeline.Build(cmd.Context())
			controller.Pipeline.Close()
			<-done
		}
		if closeErr := controller.Close(); closeErr != nil {
			logger.Warn("Failed to close catalog", slog.String("error", closeErr.Error()))
		}
		if err != nil {
			cobra.CheckErr(fmt.Errorf("build failed: %w", err))
		}

		fmt.Printf("\n✅ Staged %d document(s) in %s\n", len(result.Documents), result.StageDir)
		for i, title := range result.Titles {
			fmt.Printf("  %3d. %s\n", i+1, title)
		}
		if manual.Len() > 0 {
			fmt.Println("💡 Run the packager manually:")
			fmt.Print(manual.String())
			return
		}
		fmt.Printf("📖 Packaged: %s\n", cfg.Package.Artifact)
	},
}

func init() {
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("strategy", "s", "", "Assembly strategy: single or chapters")
	cmd.Flags().Bool("strict", true, "Run the packager and fail on a non-zero exit")
	cmd.Flags().StringP("backend", "b", "", "Packaging backend: exec or epub")
	cmd.Flags().Bool("tui", false, "Show progress in an interactive terminal view")
}

// applyBuildFlags overrides cfg with the flags the user set
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("strategy") {
		cfg.Book.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	if cmd.Flags().Changed("strict") {
		cfg.Package.Strict, _ = cmd.Flags().GetBool("strict")
	}
	if cmd.Flags().Changed("backend") {
		cfg.Package.Backend, _ = cmd.Flags().GetString("backend")
	}
	return cfg.Validate()
}

// followProgress prints progress events to w until the channel is closed.
// The returned channel is closed once every event has been printed.
func followProgress(w io.Writer, progress <-chan services.Progress) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(w, progress)
	}()
	return done
}

func printProgress(w io.Writer, progress <-chan services.Progress) {
	for p := range progress {
		switch {
		case p.Status == "error":
			fmt.Fprintf(w, "  ❌ %s: %v\n", p.Stage, p.Error)
		case p.Total > 0 && p.Status != "complete":
			fmt.Fprintf(w, "  %s %d/%d: %s\n", p.Stage, p.Current, p.Total, p.URL)
		case p.Stage == services.StagePackage && p.Status != "complete":
			fmt.Fprintf(w, "  📦 packaging %s\n", p.URL)
		}
	}
}
