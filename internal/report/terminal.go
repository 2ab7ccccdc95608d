package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/codequotient/cq/pkg/corequality"
)

// Grade color thresholds for terminal display (0-100 scale).
const (
	gradeGreenMin  = 80.0
	gradeYellowMin = 60.0
)

// WriteTerminal prints a condensed, color-coded summary to w, grounded on
// the teacher's score-threshold-to-color rendering. Colors are driven by
// fatih/color's global NO_COLOR/TTY state, set by the caller.
func WriteTerminal(w io.Writer, r *corequality.Report, colorEnabled bool) error {
	prevNoColor := color.NoColor
	color.NoColor = !colorEnabled
	defer func() { color.NoColor = prevNoColor }()

	bold := color.New(color.Bold)
	p := r.Project

	bold.Fprintf(w, "cq scan: %s\n", p.Path)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Files analyzed: %d\n", len(r.Files))
	fmt.Fprintln(w)

	printMetric(w, "Duplication", p.Summary.Duplication)
	printMetric(w, "Lint", p.Summary.Lint)
	printMetric(w, "Typing", p.Summary.Typing)
	printMetric(w, "Complexity", p.Summary.Complexity)

	gc := gradeColor(p.Summary.Grade)
	fmt.Fprint(w, "  Grade:               ")
	gc.Fprintf(w, "%.1f / 100\n", p.Summary.Grade)

	if interval, ok := p.Confidence.Intervals["grade"]; ok {
		fmt.Fprintf(w, "  Grade CI (90%%):      %.1f - %.1f\n", interval[0], interval[1])
	}

	if len(p.Confidence.Degraded) > 0 {
		fmt.Fprintln(w)
		color.New(color.FgYellow).Fprintln(w, "Degraded metrics:")
		for _, d := range p.Confidence.Degraded {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	}

	if len(p.ArchitectureViolations) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Architecture violations:")
		for _, v := range p.ArchitectureViolations {
			color.New(color.FgRed).Fprintf(w, "  %s: %s -> %s via %s\n", v.File, v.FromLayer, v.ToLayer, v.Import)
		}
	}

	worst := worstGraded(r.Files, 5)
	if len(worst) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Lowest-graded files:")
		for _, f := range worst {
			gc := gradeColor(f.Grade)
			fmt.Fprintf(w, "  %-50s ", f.Path)
			gc.Fprintf(w, "%.1f\n", f.Grade)
		}
	}

	return nil
}

func printMetric(w io.Writer, label string, value float64) {
	c := gradeColor(value)
	fmt.Fprintf(w, "  %-20s ", label+":")
	c.Fprintf(w, "%.1f\n", value)
}

func gradeColor(v float64) *color.Color {
	if v >= gradeGreenMin {
		return color.New(color.FgGreen)
	}
	if v >= gradeYellowMin {
		return color.New(color.FgYellow)
	}
	return color.New(color.FgRed)
}

func worstGraded(files []corequality.FileReport, n int) []corequality.FileReport {
	out := make([]corequality.FileReport, len(files))
	copy(out, files)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Grade < out[j].Grade })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
