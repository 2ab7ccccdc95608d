// Package architecture checks import edges against a configured set of
// allowed layer-to-layer dependencies using longest-prefix-match
// classification of file paths and module names.
package architecture

import (
	"sort"
	"strings"

	"github.com/codequotient/cq/internal/pyast"
	"github.com/codequotient/cq/pkg/corequality"
)

// Edge is an allowed (from, to) layer pair.
type Edge [2]string

// Config is the architecture section of the tool configuration.
type Config struct {
	Mapping      map[string]string // prefix -> layer
	AllowedEdges []Edge
}

// Analyzer classifies file paths and module names against the longest
// matching configured prefix.
type Analyzer struct {
	cfg      Config
	prefixes []string // sorted longest-first
	allowed  map[Edge]bool
}

// New builds an Analyzer, pre-sorting prefixes by length descending so the
// longest (most specific) match always wins, matching the reference
// implementation's sorted_prefixes.
func New(cfg Config) *Analyzer {
	prefixes := make([]string, 0, len(cfg.Mapping))
	for p := range cfg.Mapping {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	allowed := make(map[Edge]bool, len(cfg.AllowedEdges))
	for _, e := range cfg.AllowedEdges {
		allowed[e] = true
	}
	return &Analyzer{cfg: cfg, prefixes: prefixes, allowed: allowed}
}

func (a *Analyzer) layerForPath(path string) (string, bool) {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, prefix := range a.prefixes {
		if strings.HasPrefix(normalized, prefix) {
			return a.cfg.Mapping[prefix], true
		}
	}
	return "", false
}

func (a *Analyzer) layerForModule(module string) (string, bool) {
	normalized := strings.ReplaceAll(module, ".", "/")
	for _, prefix := range a.prefixes {
		if strings.HasPrefix(normalized, prefix) {
			return a.cfg.Mapping[prefix], true
		}
	}
	return "", false
}

// FileImports pairs a file path with the imports discovered in it.
type FileImports struct {
	Path    string
	Imports []pyast.ImportRef
}

// Analyze emits one violation per disallowed (from_layer, to_layer) edge, in
// file order then import order, with no deduplication.
func (a *Analyzer) Analyze(files []FileImports) []corequality.ArchitectureViolation {
	var violations []corequality.ArchitectureViolation
	for _, f := range files {
		fromLayer, ok := a.layerForPath(f.Path)
		if !ok {
			continue
		}
		for _, imp := range f.Imports {
			name := imp.FullName
			if name == "" {
				name = imp.RootName
			}
			if name == "" {
				continue
			}
			toLayer, ok := a.layerForModule(name)
			if !ok {
				continue
			}
			if !a.allowed[Edge{fromLayer, toLayer}] {
				violations = append(violations, corequality.ArchitectureViolation{
					File:      f.Path,
					FromLayer: fromLayer,
					ToLayer:   toLayer,
					Import:    imp.FullName,
				})
			}
		}
	}
	return violations
}
