package main

import (
	"fmt"
	"os"

	"gapdash/internal/config"

	"github.com/spf13/cobra"
)

var initForce bool

// initCmd writes a default config into the workspace
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .gapdash/config.yaml",
	Long: `Creates <workspace>/.gapdash/config.yaml with every setting at its
default value. Edit it to change the port, dataset source, tunnel binary or
logging categories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath(workspace)
		if !initForce && fileExists(path) {
			fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s; use --force to overwrite\n", path)
			return nil
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
