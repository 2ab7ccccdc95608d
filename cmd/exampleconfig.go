package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codequotient/cq/internal/config"
)

var exampleConfigCmd = &cobra.Command{
	Use:   "example-config",
	Short: "Print the default configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.DumpDefaultYAML()
		if err != nil {
			return fmt.Errorf("render default config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exampleConfigCmd)
}
