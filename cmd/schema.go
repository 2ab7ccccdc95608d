package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codequotient/cq/internal/report"
)

var schemaCmd = &cobra.Command{
	Use:   "print-schema",
	Short: "Print the JSON Schema the report.json output validates against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(report.SchemaJSON())
		if err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
