package cmd

import (
	"fmt"
	"os"

	"github.com/kerbaras/mirrorbook/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long:  "Write the default configuration as YAML, to ./" + config.ProjectConfigFile + " unless a path is given.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := config.ProjectConfigFile
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")

		cobra.CheckErr(writeDefaultConfig(path, force))
		fmt.Printf("📝 Wrote %s\n", path)
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return config.DefaultConfig().SaveToFile(path)
}
