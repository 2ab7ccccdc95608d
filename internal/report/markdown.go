package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/codequotient/cq/pkg/corequality"
)

const topN = 10

// WriteMarkdown writes the condensed Markdown report, grounded on the
// reference implementation's render_markdown section layout: a summary
// table, architecture violations, then three top-10 offender lists.
func WriteMarkdown(w io.Writer, r *corequality.Report) error {
	p := r.Project

	fmt.Fprintln(w, "# Code Quotient Report")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Project Summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Score | Confidence |")
	fmt.Fprintln(w, "| --- | --- | --- |")
	fmt.Fprintf(w, "| Duplication | %.2f | %.2f |\n", p.Summary.Duplication, p.Confidence.PerMetric["duplication"])
	fmt.Fprintf(w, "| Lint | %.2f | %.2f |\n", p.Summary.Lint, p.Confidence.PerMetric["lint"])
	fmt.Fprintf(w, "| Typing | %.2f | %.2f |\n", p.Summary.Typing, p.Confidence.PerMetric["typing"])
	fmt.Fprintf(w, "| Complexity | %.2f | %.2f |\n", p.Summary.Complexity, p.Confidence.PerMetric["complexity"])
	interval := p.Confidence.Intervals["grade"]
	fmt.Fprintf(w, "| Grade | %.2f | CI: %.2f-%.2f |\n", p.Summary.Grade, interval[0], interval[1])
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Architecture Violations")
	fmt.Fprintln(w)
	if len(p.ArchitectureViolations) == 0 {
		fmt.Fprintln(w, "- None detected")
	} else {
		for _, v := range p.ArchitectureViolations {
			fmt.Fprintf(w, "- `%s`: %s -> %s via `%s`\n", v.File, v.FromLayer, v.ToLayer, v.Import)
		}
	}
	fmt.Fprintln(w)

	byDuplication := sortedCopy(r.Files, func(a, b corequality.FileReport) bool {
		return a.Metrics.DuplicationRatio > b.Metrics.DuplicationRatio
	})
	fmt.Fprintln(w, "## Top 10 Duplication")
	fmt.Fprintln(w)
	for _, f := range limit(byDuplication, topN) {
		fmt.Fprintf(w, "- `%s` (%.2f)\n", f.Path, f.Metrics.DuplicationRatio)
	}
	fmt.Fprintln(w)

	byLint := sortedCopy(r.Files, func(a, b corequality.FileReport) bool {
		return a.Metrics.LintWeightedScore < b.Metrics.LintWeightedScore
	})
	fmt.Fprintln(w, "## Top 10 Lint Findings")
	fmt.Fprintln(w)
	for _, f := range limit(byLint, topN) {
		fmt.Fprintf(w, "- `%s` (score %.2f, counts C=%d W=%d R=%d E=%d)\n",
			f.Path, f.Metrics.LintWeightedScore, f.Metrics.LintCounts.C, f.Metrics.LintCounts.W,
			f.Metrics.LintCounts.R, f.Metrics.LintCounts.E)
	}
	fmt.Fprintln(w)

	byComplexity := sortedCopy(r.Files, func(a, b corequality.FileReport) bool {
		return a.Metrics.ComplexityPerLOC > b.Metrics.ComplexityPerLOC
	})
	fmt.Fprintln(w, "## Top 10 Cognitive Complexity")
	fmt.Fprintln(w)
	for _, f := range limit(byComplexity, topN) {
		fmt.Fprintf(w, "- `%s` (complexity %d, per LOC %.2f)\n", f.Path, f.Metrics.CognitiveComplexity, f.Metrics.ComplexityPerLOC)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Tools")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- pylint: %s\n", r.Meta.Tools.PylintCmd)
	fmt.Fprintf(w, "- mypy: %s\n", r.Meta.Tools.MypyCmd)
	fmt.Fprintln(w)

	return nil
}

func sortedCopy(files []corequality.FileReport, less func(a, b corequality.FileReport) bool) []corequality.FileReport {
	out := make([]corequality.FileReport, len(files))
	copy(out, files)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func limit(files []corequality.FileReport, n int) []corequality.FileReport {
	if len(files) < n {
		return files
	}
	return files[:n]
}
