// Package scoring computes per-file grades and confidence, aggregates them
// into a project-wide summary weighted by role and line count, and derives a
// bootstrap confidence interval for the overall grade.
package scoring

import (
	"math"
	"sort"

	"github.com/codequotient/cq/pkg/corequality"
)

// Weights holds the metric weights used in the grade formula; all four are
// expected to sum close to 1.0 but the formula itself normalizes by their
// actual sum, so any positive combination is valid.
type Weights struct {
	Duplication float64
	Lint        float64
	Typing      float64
	Complexity  float64
}

func (w Weights) sum() float64 {
	return w.Duplication + w.Lint + w.Typing + w.Complexity
}

// WeightedGrade computes one file's grade, matching the reference
// implementation's _weighted_grade.
func WeightedGrade(m corequality.FileMetrics, w Weights) float64 {
	numerator := (1-m.DuplicationRatio)*w.Duplication*100 +
		m.LintWeightedScore*w.Lint +
		m.TypingScore*w.Typing +
		m.ComplexityScore*w.Complexity
	denom := w.sum()
	if denom < 1e-6 {
		denom = 1e-6
	}
	return numerator / denom
}

// FileConfidence computes the per-metric and overall confidence for one
// file, matching the reference implementation's base_conf * per-metric
// multiplier blend.
func FileConfidence(loc int, parserOK bool, dupParserOK bool, lintDegraded bool, typingDegraded bool, complexityParserOK bool) map[string]float64 {
	base := math.Min(1.0, math.Log1p(float64(loc))/math.Log1p(300))
	if !parserOK {
		base *= 0.6
	}

	dupConf := 0.5
	if dupParserOK {
		dupConf = 1.0
	}
	lintConf := 1.0
	if lintDegraded {
		lintConf = 0.4
	}
	typingConf := 1.0
	if typingDegraded {
		typingConf = 0.4
	}
	complexityConf := 0.5
	if complexityParserOK {
		complexityConf = 1.0
	}

	conf := map[string]float64{
		"duplication": base * dupConf,
		"lint":        base * lintConf,
		"typing":      base * typingConf,
		"complexity":  base * complexityConf,
	}
	sum := conf["duplication"] + conf["lint"] + conf["typing"] + conf["complexity"]
	overall := sum / 4.0
	if overall > 1.0 {
		overall = 1.0
	}
	conf["overall"] = overall
	return conf
}

// AggregateProject computes the role+LOC-weighted project averages of the
// four core metrics plus the overall grade, matching _aggregate_project.
func AggregateProject(files []corequality.FileReport, roleWeights map[corequality.Role]float64) corequality.ProjectSummary {
	var totalDup, totalLint, totalTyping, totalComplexity, totalGrade float64
	var weightDup, weightLint, weightTyping, weightComplexity, weightGrade float64

	defaultWeight, ok := roleWeights[corequality.RoleDefault]
	if !ok {
		defaultWeight = 1.0
	}

	for _, f := range files {
		roleWeight, ok := roleWeights[f.Role]
		if !ok {
			roleWeight = defaultWeight
		}
		factor := roleWeight * float64(f.LOC)

		totalDup += (1 - f.Metrics.DuplicationRatio) * factor * 100
		totalLint += f.Metrics.LintWeightedScore * factor
		totalTyping += f.Metrics.TypingScore * factor
		totalComplexity += f.Metrics.ComplexityScore * factor
		totalGrade += f.Grade * factor

		weightDup += factor
		weightLint += factor
		weightTyping += factor
		weightComplexity += factor
		weightGrade += factor
	}

	return corequality.ProjectSummary{
		Duplication: safeDiv(totalDup, weightDup),
		Lint:        safeDiv(totalLint, weightLint),
		Typing:      safeDiv(totalTyping, weightTyping),
		Complexity:  safeDiv(totalComplexity, weightComplexity),
		Grade:       safeDiv(totalGrade, weightGrade),
	}
}

func safeDiv(total, weight float64) float64 {
	if weight == 0 {
		return 0.0
	}
	const epsilon = 1e-6
	denom := weight
	if denom < epsilon {
		denom = epsilon
	}
	return total / denom
}

// BootstrapInterval resamples values with replacement `iterations` times,
// computes each sample's mean, and returns the 5th/95th percentile of the
// sorted means. Matches the reference implementation's _bootstrap_interval,
// substituting a documented Go PRNG (see prng.go) for CPython's
// random.Random.
func BootstrapInterval(values []float64, iterations int, seed int64) [2]float64 {
	if len(values) == 0 {
		return [2]float64{0.0, 0.0}
	}
	r := newRNG(seed)
	samples := make([]float64, iterations)
	for i := 0; i < iterations; i++ {
		var sum float64
		for range values {
			sum += values[r.intn(len(values))]
		}
		samples[i] = sum / float64(len(values))
	}
	sort.Float64s(samples)
	n := len(samples)
	lowerIdx := int(0.05 * float64(n-1))
	if lowerIdx < 0 {
		lowerIdx = 0
	}
	upperIdx := int(0.95 * float64(n-1))
	if upperIdx > n-1 {
		upperIdx = n - 1
	}
	return [2]float64{samples[lowerIdx], samples[upperIdx]}
}
