// Package pipeline orchestrates one scan end to end: discover files, parse
// them, fan analysis out across a worker pool, run the external tool
// adapters concurrently, then score and assemble the final report on a
// single-threaded barrier.
package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codequotient/cq/internal/architecture"
	"github.com/codequotient/cq/internal/complexity"
	"github.com/codequotient/cq/internal/config"
	"github.com/codequotient/cq/internal/discovery"
	"github.com/codequotient/cq/internal/duplication"
	"github.com/codequotient/cq/internal/pyast"
	"github.com/codequotient/cq/internal/pytree"
	"github.com/codequotient/cq/internal/scoring"
	"github.com/codequotient/cq/internal/toolcheck"
	"github.com/codequotient/cq/pkg/corequality"
	"github.com/codequotient/cq/pkg/version"
)

// Options configures one Run invocation.
type Options struct {
	Jobs int // worker pool size for the per-file analyzer fan-out
}

// Result bundles the assembled report with any non-fatal problems
// encountered along the way (degraded external tools).
type Result struct {
	Report   *corequality.Report
	Warnings []string
}

// clock lets tests in this package substitute a fixed timestamp; production
// callers leave it untouched and get time.Now().UTC().
var clock = func() time.Time { return time.Now().UTC() }

// Run discovers, analyzes, scores, and assembles a report for root.
func Run(ctx context.Context, root string, cfg config.Config, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	exclude := make([]string, 0, len(cfg.Paths.Exclude))
	for _, suffix := range cfg.Paths.Exclude {
		exclude = append(exclude, filepath.Join(absRoot, strings.Trim(suffix, "/")))
	}

	files, err := discovery.NewWalker(exclude).Discover(absRoot)
	if err != nil {
		return nil, err
	}

	pool, err := pytree.NewPool()
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	type parsedFile struct {
		file     discovery.File
		tree     *pytree.File
		parserOK bool
	}
	parsed := make([]parsedFile, len(files))
	for i, f := range files {
		tree, ok := pool.Parse(f.Path, f.Source)
		parsed[i] = parsedFile{file: f, tree: tree, parserOK: ok}
	}
	defer func() {
		for _, p := range parsed {
			p.tree.Close()
		}
	}()

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	normCfg := pyast.NormalizeConfig{
		StripLiterals:         cfg.Duplication.Normalize.StripLiterals,
		StripComments:         cfg.Duplication.Normalize.StripComments,
		IdentifierPlaceholder: cfg.Duplication.Normalize.IdentifierPlaceholder,
	}
	complexityScale := complexity.Scale{
		TargetPerLOC: cfg.Scoring.ComplexityScale.TargetPerLOC,
		HardCap:      cfg.Scoring.ComplexityScale.HardCap,
	}

	type perFile struct {
		tokens     []string
		complexity complexity.Result
		annotated  int
		total      int
		imports    []pyast.ImportRef
	}
	results := make([]perFile, len(files))

	// Each goroutine below owns a disjoint index into results/parsed, so no
	// mutex is needed for these writes; only the two adapter goroutines
	// after this loop share closed-over outer variables, one each.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range parsed {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			p := parsed[i]
			tokens := pyast.NormalizeForDup(p.tree, p.parserOK, normCfg)
			cres := complexity.Compute(p.tree, p.file.LOC, complexityScale)
			annotated, total := pyast.AnnotationCoverage(p.tree)
			imports := pyast.IterImports(p.tree)
			results[i] = perFile{tokens: tokens, complexity: cres, annotated: annotated, total: total, imports: imports}
			return nil
		})
	}

	absPaths := make([]string, len(files))
	locByAbsPath := make(map[string]int, len(files))
	for i, f := range files {
		absPaths[i] = f.Path
		locByAbsPath[f.Path] = f.LOC
	}

	lintAdapter := &toolcheck.LintAdapter{
		Cmd:     cfg.Tools.PylintCmd,
		Timeout: timeoutFor(cfg.Tools.Timeouts, "pylint", 90),
		Weights: cfg.Weights.PylintCategories,
	}
	typingAdapter := &toolcheck.TypingAdapter{
		Cmd:     cfg.Tools.MypyCmd,
		Timeout: timeoutFor(cfg.Tools.Timeouts, "mypy", 120),
		Scale: toolcheck.TypingScale{
			MaxScoreAt0:   cfg.Scoring.TypingErrorScale.Per1kLOC.MaxScoreAt0,
			ZeroScoreAt20: cfg.Scoring.TypingErrorScale.Per1kLOC.ZeroScoreAt20,
		},
	}

	var lintFindings toolcheck.LintFindings
	var lintOutcome corequality.Outcome
	var lintReason string
	var typingFindings toolcheck.TypingFindings
	var typingOutcome corequality.Outcome
	var typingReason string

	g.Go(func() error {
		lintFindings, lintOutcome, lintReason = lintAdapter.Run(gctx, absPaths)
		return nil
	})
	g.Go(func() error {
		typingFindings, typingOutcome, typingReason = typingAdapter.Run(gctx, absPaths, locByAbsPath)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fingerprintCfg := duplication.Config{K: cfg.Duplication.K, W: cfg.Duplication.W}
	fingerprints := make(map[string][]uint32, len(files))
	for i, f := range files {
		fingerprints[f.RelPath] = duplication.Fingerprints(results[i].tokens, fingerprintCfg)
	}
	dupRatios := duplication.Overlap(fingerprints)

	edges := make([]architecture.Edge, 0, len(cfg.Arch.AllowedEdges))
	for _, e := range cfg.Arch.AllowedEdges {
		edges = append(edges, architecture.Edge{e[0], e[1]})
	}
	archAnalyzer := architecture.New(architecture.Config{Mapping: cfg.Arch.Map, AllowedEdges: edges})
	fileImports := make([]architecture.FileImports, len(files))
	for i, f := range files {
		fileImports[i] = architecture.FileImports{Path: f.RelPath, Imports: results[i].imports}
	}
	violations := archAnalyzer.Analyze(fileImports)

	weights := scoring.Weights{
		Duplication: cfg.Weights.Metrics["duplication"],
		Lint:        cfg.Weights.Metrics["lint"],
		Typing:      cfg.Weights.Metrics["typing"],
		Complexity:  cfg.Weights.Metrics["complexity"],
	}

	var warnings []string
	lintDegraded := lintOutcome == corequality.OutcomeDegraded
	typingDegraded := typingOutcome == corequality.OutcomeDegraded
	degradedMetrics := map[string]bool{}
	if lintDegraded {
		degradedMetrics["lint"] = true
		warnings = append(warnings, reasonOr(lintReason, "pylint degraded"))
	}
	if typingDegraded {
		degradedMetrics["typing"] = true
		warnings = append(warnings, reasonOr(typingReason, "mypy degraded"))
	}

	fileReports := make([]corequality.FileReport, 0, len(files))
	for i, f := range files {
		r := results[i]
		missing := []string{}

		lc := lintFindings.Counts[f.Path]
		lintScore := 100.0
		if v, ok := lintFindings.Weighted[f.Path]; ok {
			lintScore = v
		}
		if lintDegraded {
			missing = append(missing, reasonOr(lintReason, "pylint degraded"))
		}

		typingErrors := typingFindings.Errors[f.Path]
		typingScore := 100.0
		if v, ok := typingFindings.Scores[f.Path]; ok {
			typingScore = v
		}
		if typingDegraded {
			missing = append(missing, reasonOr(typingReason, "mypy degraded"))
		}

		annotationCoverage := 0.0
		if r.total > 0 {
			annotationCoverage = float64(r.annotated) / float64(r.total)
		}

		metrics := corequality.FileMetrics{
			DuplicationRatio:    dupRatios[f.RelPath],
			LintCounts:          corequality.LintCounts{C: lc.C, W: lc.W, R: lc.R, E: lc.E},
			LintWeightedScore:   lintScore,
			TypingErrors:        typingErrors,
			TypingScore:         typingScore,
			AnnotationCoverage:  annotationCoverage,
			CognitiveComplexity: r.complexity.Raw,
			ComplexityScore:     r.complexity.Score,
			ComplexityPerLOC:    r.complexity.PerLOC,
		}
		grade := scoring.WeightedGrade(metrics, weights)
		parserOK := parsed[i].parserOK
		confidence := scoring.FileConfidence(f.LOC, parserOK, parserOK, lintDegraded, typingDegraded, parserOK)

		fileReports = append(fileReports, corequality.FileReport{
			Path:           f.RelPath,
			LOC:            f.LOC,
			Role:           f.Role,
			Metrics:        metrics,
			Grade:          grade,
			Confidence:     confidence,
			MissingReasons: missing,
		})
	}

	sort.Slice(fileReports, func(i, j int) bool { return fileReports[i].Path < fileReports[j].Path })

	roleWeights := make(map[corequality.Role]float64, len(cfg.Weights.Roles))
	for role, w := range cfg.Weights.Roles {
		roleWeights[corequality.Role(role)] = w
	}
	summary := scoring.AggregateProject(fileReports, roleWeights)

	grades := make([]float64, len(fileReports))
	for i, f := range fileReports {
		grades[i] = f.Grade
	}
	bootstrapInterval := scoring.BootstrapInterval(grades, cfg.Bootstrap.Iterations, cfg.Bootstrap.Seed)

	projectConfidence := corequality.ProjectConfidence{
		PerMetric: meanConfidence(fileReports),
		Intervals: map[string][2]float64{"grade": bootstrapInterval},
		Degraded:  sortedStringKeys(degradedMetrics),
	}

	report := &corequality.Report{
		Meta: corequality.ReportMeta{
			GeneratedAt: clock().Format(time.RFC3339),
			ToolVersion: version.Version,
			Tools:       corequality.ToolsMeta{PylintCmd: cfg.Tools.PylintCmd, MypyCmd: cfg.Tools.MypyCmd},
		},
		Project: corequality.ProjectReport{
			Path: absRoot,
			Weights: map[string]map[string]float64{
				"metrics":           cfg.Weights.Metrics,
				"pylint_categories": cfg.Weights.PylintCategories,
				"roles":             cfg.Weights.Roles,
			},
			RoleWeights:            roleWeights,
			Summary:                summary,
			Confidence:             projectConfidence,
			ArchitectureViolations: violations,
		},
		Files: fileReports,
	}

	return &Result{Report: report, Warnings: warnings}, nil
}

func timeoutFor(timeouts map[string]int, key string, fallback int) time.Duration {
	if s, ok := timeouts[key]; ok && s > 0 {
		return time.Duration(s) * time.Second
	}
	return time.Duration(fallback) * time.Second
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

func sortedStringKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func meanConfidence(files []corequality.FileReport) map[string]float64 {
	out := map[string]float64{"duplication": 0, "lint": 0, "typing": 0, "complexity": 0}
	if len(files) == 0 {
		return out
	}
	for _, f := range files {
		out["duplication"] += f.Confidence["duplication"]
		out["lint"] += f.Confidence["lint"]
		out["typing"] += f.Confidence["typing"]
		out["complexity"] += f.Confidence["complexity"]
	}
	n := float64(len(files))
	for k := range out {
		out[k] /= n
	}
	return out
}
