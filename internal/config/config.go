// Package config loads the cq.yml project configuration, deep-merging it
// over a hardcoded set of defaults so every field is always present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Paths controls which files are scanned.
type Paths struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Arch is the architecture-conformance section.
type Arch struct {
	Layers       []string          `yaml:"layers"`
	Map          map[string]string `yaml:"map"`
	AllowedEdges [][2]string       `yaml:"allowed_edges"`
}

// Tools configures the external lint/typing commands and their timeouts.
type Tools struct {
	PylintCmd string         `yaml:"pylint_cmd"`
	MypyCmd   string         `yaml:"mypy_cmd"`
	Timeouts  map[string]int `yaml:"timeouts"` // seconds
}

// DuplicationNormalize controls the normalization pass before fingerprinting.
type DuplicationNormalize struct {
	StripLiterals         bool   `yaml:"strip_literals"`
	StripComments         bool   `yaml:"strip_comments"`
	IdentifierPlaceholder string `yaml:"identifier_placeholder"`
}

// Duplication configures the winnowing engine.
type Duplication struct {
	K         int                  `yaml:"k"`
	W         int                  `yaml:"w"`
	Normalize DuplicationNormalize `yaml:"normalize"`
}

// Bootstrap configures the grade confidence interval resampling.
type Bootstrap struct {
	Iterations int   `yaml:"iterations"`
	Seed       int64 `yaml:"seed"`
}

// ComplexityScale configures the cognitive complexity score curve.
type ComplexityScale struct {
	TargetPerLOC float64 `yaml:"target_per_loc"`
	HardCap      int     `yaml:"hard_cap"`
}

// TypingPer1kLOC configures the typing error density score curve.
type TypingPer1kLOC struct {
	MaxScoreAt0   float64 `yaml:"max_score_at_0"`
	ZeroScoreAt20 float64 `yaml:"zero_score_at_20"`
}

// TypingErrorScale wraps the per-1k-LOC scale (mirrors the reference
// implementation's nested dict shape).
type TypingErrorScale struct {
	Per1kLOC TypingPer1kLOC `yaml:"per_1k_loc"`
}

// Scoring groups the two score-curve configs.
type Scoring struct {
	ComplexityScale  ComplexityScale  `yaml:"complexity_scale"`
	TypingErrorScale TypingErrorScale `yaml:"typing_error_scale"`
}

// Report controls output format and destination.
type Report struct {
	Format []string `yaml:"format"`
	OutDir string   `yaml:"out_dir"`
}

// Weights groups every weighting table used by the scorer.
type Weights struct {
	Metrics         map[string]float64 `yaml:"metrics"`
	PylintCategories map[string]float64 `yaml:"pylint_categories"`
	Roles           map[string]float64 `yaml:"roles"`
}

// Config is the fully-resolved configuration driving one scan.
type Config struct {
	Paths       Paths       `yaml:"paths"`
	Arch        Arch        `yaml:"arch"`
	Weights     Weights     `yaml:"weights"`
	Tools       Tools       `yaml:"tools"`
	Duplication Duplication `yaml:"duplication"`
	Bootstrap   Bootstrap   `yaml:"bootstrap"`
	Scoring     Scoring     `yaml:"scoring"`
	Report      Report      `yaml:"report"`
}

// Default returns the hardcoded baseline configuration every scan starts
// from, matching the reference implementation's DEFAULT_CONFIG exactly.
func Default() Config {
	return Config{
		Paths: Paths{
			Include: []string{"./"},
			Exclude: []string{"/.venv/", "/venv/", "/build/", "/dist/", "/site-packages/"},
		},
		Arch: Arch{
			Layers: []string{"core", "api", "ui"},
			Map:    map[string]string{"src/core": "core", "src/api": "api", "src/ui": "ui"},
			AllowedEdges: [][2]string{
				{"core", "core"}, {"api", "core"}, {"api", "api"},
				{"ui", "api"}, {"ui", "core"}, {"ui", "ui"},
			},
		},
		Weights: Weights{
			Metrics: map[string]float64{
				"duplication": 0.25, "lint": 0.30, "typing": 0.20, "complexity": 0.25,
			},
			PylintCategories: map[string]float64{"C": 0.25, "W": 0.5, "R": 0.4, "E": 1.0},
			Roles: map[string]float64{
				"default": 1.0, "test": 0.35, "config": 0.35, "vendor": 0.2, "generated": 0.0,
			},
		},
		Tools: Tools{
			PylintCmd: "pylint",
			MypyCmd:   "mypy",
			Timeouts:  map[string]int{"pylint": 90, "mypy": 120},
		},
		Duplication: Duplication{
			K: 25, W: 4,
			Normalize: DuplicationNormalize{StripLiterals: true, StripComments: true, IdentifierPlaceholder: "ID"},
		},
		Bootstrap: Bootstrap{Iterations: 100, Seed: 1337},
		Scoring: Scoring{
			ComplexityScale: ComplexityScale{TargetPerLOC: 0.25, HardCap: 50},
			TypingErrorScale: TypingErrorScale{
				Per1kLOC: TypingPer1kLOC{MaxScoreAt0: 100, ZeroScoreAt20: 0},
			},
		},
		Report: Report{Format: []string{"json", "md"}, OutDir: ".cq-out"},
	}
}

// Load reads a YAML config file, if any, and deep-merges it over Default.
// A nil/empty path is not an error: it simply returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(data) == 0 {
		return Default(), nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if raw == nil {
		return Default(), nil
	}

	defaultMap := toMap(Default())
	merged := deepMerge(defaultMap, raw)
	return fromMap(merged), nil
}

// DumpDefaultYAML renders Default as YAML for the example-config command.
func DumpDefaultYAML() (string, error) {
	out, err := yaml.Marshal(toMap(Default()))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// deepMerge overlays override onto base, recursing into nested maps and
// otherwise letting override win, matching the reference implementation's
// _deep_merge exactly.
func deepMerge(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if baseVal, ok := result[k]; ok {
			baseMap, baseIsMap := asMap(baseVal)
			overrideMap, overrideIsMap := asMap(v)
			if baseIsMap && overrideIsMap {
				result[k] = deepMerge(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// toMap/fromMap round-trip a Config through a YAML-shaped map so the merge
// logic operates on plain maps, the same way the reference implementation's
// DEFAULT_CONFIG is a plain dict merged with whatever the user supplies.
func toMap(c Config) map[string]any {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil
	}
	var m map[string]any
	_ = yaml.Unmarshal(out, &m)
	return m
}

func fromMap(m map[string]any) Config {
	out, err := yaml.Marshal(m)
	if err != nil {
		return Default()
	}
	cfg := Default()
	_ = yaml.Unmarshal(out, &cfg)
	return cfg
}
