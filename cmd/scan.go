package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codequotient/cq/internal/config"
	"github.com/codequotient/cq/internal/pipeline"
	"github.com/codequotient/cq/internal/report"
	"github.com/codequotient/cq/pkg/corequality"
)

var (
	configPath string
	format     string
	outDir     string
	jobs       int
)

var scanCmd = &cobra.Command{
	Use:          "scan [path]",
	Short:        "Scan a Python project and emit a quality report",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch format {
		case "json", "md", "both":
		default:
			return fmt.Errorf("invalid --format %q: must be json, md, or both", format)
		}

		dest := outDir
		if dest == "" {
			dest = cfg.Report.OutDir
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		spinner := pipeline.NewSpinner(os.Stderr)
		spinner.Start("Scanning...")

		result, err := pipeline.Run(cmd.Context(), path, cfg, pipeline.Options{Jobs: jobs})
		if err != nil {
			spinner.Stop("")
			return fmt.Errorf("scan: %w", err)
		}
		spinner.Stop("Done.")

		var problems []string
		problems = append(problems, result.Warnings...)
		if err := report.Validate(result.Report); err != nil {
			problems = append(problems, fmt.Sprintf("report failed schema validation: %v", err))
		}

		formats := map[string]bool{format: true}
		if format == "both" {
			formats = map[string]bool{"json": true, "md": true}
		}

		if formats["json"] {
			f, err := os.Create(filepath.Join(dest, "report.json"))
			if err != nil {
				return fmt.Errorf("create report.json: %w", err)
			}
			werr := report.WriteJSON(f, result.Report)
			f.Close()
			if werr != nil {
				return fmt.Errorf("write report.json: %w", werr)
			}
		}
		if formats["md"] {
			f, err := os.Create(filepath.Join(dest, "report.md"))
			if err != nil {
				return fmt.Errorf("create report.md: %w", err)
			}
			werr := report.WriteMarkdown(f, result.Report)
			f.Close()
			if werr != nil {
				return fmt.Errorf("write report.md: %w", werr)
			}
		}

		colorEnabled := os.Getenv("NO_COLOR") == "" && isTerminal(os.Stdout)
		_ = report.WriteTerminal(cmd.OutOrStdout(), result.Report, colorEnabled)

		for _, p := range problems {
			fmt.Fprintln(cmd.ErrOrStderr(), p)
		}
		if len(problems) > 0 {
			return &corequality.ExitError{Code: 2, Message: strings.Join(problems, "; ")}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&configPath, "config", "", "path to cq.yml config file")
	scanCmd.Flags().StringVar(&format, "format", "both", "report format: json, md, or both")
	scanCmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to the config's report.out_dir)")
	scanCmd.Flags().IntVar(&jobs, "jobs", 1, "number of parallel analysis workers")
	rootCmd.AddCommand(scanCmd)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
