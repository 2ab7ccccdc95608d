package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codequotient/cq/pkg/corequality"
	"github.com/codequotient/cq/pkg/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "cq",
	Short:   "Code Quotient - static quality analyzer for Python codebases",
	Long:    "cq measures duplication, lint and type-checker hygiene, cognitive\ncomplexity, and architecture conformance across a Python project, and\nrolls the results into a confidence-weighted quality grade.",
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.SilenceErrors = true
}

// Execute runs the root command and exits with code 1 on error.
// ExitError is handled specially: its Code is used as the exit code.
// An unknown subcommand exits with code 3.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *corequality.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		if strings.HasPrefix(err.Error(), "unknown command") {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
