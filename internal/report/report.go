// Package report renders a corequality.Report to JSON, Markdown, and a
// color-coded terminal summary, and validates the JSON form against the
// tool's embedded JSON Schema.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/codequotient/cq/pkg/corequality"
)

//go:embed schema.json
var schemaJSON []byte

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("report: invalid embedded schema: %v", err))
	}
	const uri = "https://codequotient.dev/schema/report.json"
	if err := compiler.AddResource(uri, doc); err != nil {
		panic(fmt.Sprintf("report: cannot register embedded schema: %v", err))
	}
	sch, err := compiler.Compile(uri)
	if err != nil {
		panic(fmt.Sprintf("report: cannot compile embedded schema: %v", err))
	}
	return sch
}

// SchemaJSON returns the embedded JSON Schema document, for `print-schema`.
func SchemaJSON() []byte {
	return schemaJSON
}

type jsonLint struct {
	C             int     `json:"C"`
	W             int     `json:"W"`
	R             int     `json:"R"`
	E             int     `json:"E"`
	WeightedScore float64 `json:"weighted_score"`
}

type jsonTyping struct {
	MypyErrors         int     `json:"mypy_errors"`
	AnnotationCoverage float64 `json:"annotation_coverage"`
	Score              float64 `json:"score"`
}

type jsonComplexity struct {
	Cognitive int     `json:"cognitive"`
	PerLOC    float64 `json:"per_loc"`
	Score     float64 `json:"score"`
}

type jsonMetrics struct {
	DuplicationRatio float64        `json:"duplication_ratio"`
	Lint             jsonLint       `json:"lint"`
	Typing           jsonTyping     `json:"typing"`
	Complexity       jsonComplexity `json:"complexity"`
}

type jsonFile struct {
	Path           string             `json:"path"`
	LOC            int                `json:"loc"`
	Role           string             `json:"role"`
	Metrics        jsonMetrics        `json:"metrics"`
	Grade          float64            `json:"grade"`
	Confidence     map[string]float64 `json:"confidence"`
	MissingReasons []string           `json:"missing_reasons"`
}

type jsonArchViolation struct {
	File      string `json:"file"`
	FromLayer string `json:"from_layer"`
	ToLayer   string `json:"to_layer"`
	Import    string `json:"import"`
}

type jsonSummary struct {
	Duplication float64 `json:"duplication"`
	Lint        float64 `json:"lint"`
	Typing      float64 `json:"typing"`
	Complexity  float64 `json:"complexity"`
	Grade       float64 `json:"grade"`
}

type jsonConfidence struct {
	PerMetric map[string]float64    `json:"per_metric"`
	Intervals map[string][2]float64 `json:"intervals"`
	Degraded  []string              `json:"degraded"`
}

type jsonArchitecture struct {
	Violations []jsonArchViolation `json:"violations"`
}

type jsonProject struct {
	Path        string                         `json:"path"`
	Weights     map[string]map[string]float64  `json:"weights"`
	RoleWeights map[string]float64             `json:"role_weights"`
	Summary     jsonSummary                    `json:"summary"`
	Confidence  jsonConfidence                 `json:"confidence"`
	Architecture jsonArchitecture              `json:"architecture"`
}

type jsonTools struct {
	Pylint string `json:"pylint"`
	Mypy   string `json:"mypy"`
}

type jsonMeta struct {
	GeneratedAt string    `json:"generated_at"`
	CQVersion   string    `json:"cq_version"`
	Tools       jsonTools `json:"tools"`
}

type jsonReport struct {
	Meta    jsonMeta    `json:"meta"`
	Project jsonProject `json:"project"`
	Files   []jsonFile  `json:"files"`
}

// serialize converts the in-memory report to its wire representation,
// matching the reference implementation's serialize_report field-by-field.
func serialize(r *corequality.Report) jsonReport {
	roleWeights := make(map[string]float64, len(r.Project.RoleWeights))
	for role, w := range r.Project.RoleWeights {
		roleWeights[string(role)] = w
	}

	violations := make([]jsonArchViolation, 0, len(r.Project.ArchitectureViolations))
	for _, v := range r.Project.ArchitectureViolations {
		violations = append(violations, jsonArchViolation{
			File: v.File, FromLayer: v.FromLayer, ToLayer: v.ToLayer, Import: v.Import,
		})
	}

	files := make([]jsonFile, 0, len(r.Files))
	for _, f := range r.Files {
		missing := f.MissingReasons
		if missing == nil {
			missing = []string{}
		}
		files = append(files, jsonFile{
			Path: f.Path,
			LOC:  f.LOC,
			Role: string(f.Role),
			Metrics: jsonMetrics{
				DuplicationRatio: f.Metrics.DuplicationRatio,
				Lint: jsonLint{
					C: f.Metrics.LintCounts.C, W: f.Metrics.LintCounts.W,
					R: f.Metrics.LintCounts.R, E: f.Metrics.LintCounts.E,
					WeightedScore: f.Metrics.LintWeightedScore,
				},
				Typing: jsonTyping{
					MypyErrors:         f.Metrics.TypingErrors,
					AnnotationCoverage: f.Metrics.AnnotationCoverage,
					Score:              f.Metrics.TypingScore,
				},
				Complexity: jsonComplexity{
					Cognitive: f.Metrics.CognitiveComplexity,
					PerLOC:    f.Metrics.ComplexityPerLOC,
					Score:     f.Metrics.ComplexityScore,
				},
			},
			Grade:          f.Grade,
			Confidence:     f.Confidence,
			MissingReasons: missing,
		})
	}

	return jsonReport{
		Meta: jsonMeta{
			GeneratedAt: r.Meta.GeneratedAt,
			CQVersion:   r.Meta.ToolVersion,
			Tools:       jsonTools{Pylint: r.Meta.Tools.PylintCmd, Mypy: r.Meta.Tools.MypyCmd},
		},
		Project: jsonProject{
			Path:        r.Project.Path,
			Weights:     r.Project.Weights,
			RoleWeights: roleWeights,
			Summary: jsonSummary{
				Duplication: r.Project.Summary.Duplication,
				Lint:        r.Project.Summary.Lint,
				Typing:      r.Project.Summary.Typing,
				Complexity:  r.Project.Summary.Complexity,
				Grade:       r.Project.Summary.Grade,
			},
			Confidence: jsonConfidence{
				PerMetric: r.Project.Confidence.PerMetric,
				Intervals: r.Project.Confidence.Intervals,
				Degraded:  r.Project.Confidence.Degraded,
			},
			Architecture: jsonArchitecture{Violations: violations},
		},
		Files: files,
	}
}

// WriteJSON writes the report as indented JSON to w. Field order follows the
// struct declaration order above, which is a stable proxy for the reference
// implementation's sort_keys=True: both produce one deterministic ordering.
func WriteJSON(w io.Writer, r *corequality.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(serialize(r))
}

// Validate checks the report against the embedded JSON Schema. A non-nil
// error describes the violation but never blocks report emission: callers
// write the report regardless and surface this error separately.
func Validate(r *corequality.Report) error {
	var instance any
	data, err := json.Marshal(serialize(r))
	if err != nil {
		return fmt.Errorf("marshal report for validation: %w", err)
	}
	instance, err = jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode report for validation: %w", err)
	}
	return schema.Validate(instance)
}
