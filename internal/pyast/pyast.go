// Package pyast translates Python syntax trees into the token streams,
// import edges, and annotation counts the analyzers consume.
package pyast

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codequotient/cq/internal/pytree"
)

// NormalizeConfig controls which rewrites NormalizeForDup applies, mirroring
// the duplication.normalize block of the configuration file.
type NormalizeConfig struct {
	StripLiterals        bool
	StripComments        bool
	IdentifierPlaceholder string
}

var literalKinds = map[string]bool{
	"string":  true,
	"integer": true,
	"float":   true,
	"true":    true,
	"false":   true,
	"none":    true,
}

// NormalizeForDup rewrites identifiers, attribute suffixes, literals, and
// definition names to fixed placeholders and returns the resulting token
// stream (source already comment-stripped, whitespace-split). The rewrite
// runs only when parseOK and cfg.StripLiterals are both true; otherwise the
// raw source is tokenized instead, after optional comment stripping.
func NormalizeForDup(f *pytree.File, parseOK bool, cfg NormalizeConfig) []string {
	var text string
	if parseOK && cfg.StripLiterals {
		text = normalizedText(f, cfg)
	} else {
		text = string(f.Source)
	}
	if cfg.StripComments {
		text = stripComments(text)
	}
	return strings.Fields(text)
}

func placeholder(cfg NormalizeConfig) string {
	if cfg.IdentifierPlaceholder == "" {
		return "ID"
	}
	return cfg.IdentifierPlaceholder
}

// normalizedText rebuilds a token stream directly from the tree rather than
// unparsing a rewritten AST (Tree-sitter's CST has no unparser): every leaf
// token is emitted as its literal source text, except identifiers, attribute
// suffixes, literals, and the declared names of functions/classes/parameters,
// which emit the placeholder instead.
func normalizedText(f *pytree.File, cfg NormalizeConfig) string {
	ph := placeholder(cfg)
	replace := collectReplacedNodes(f.Root(), f.Source, ph)

	var b strings.Builder
	emitLeaves(f.Root(), f.Source, replace, &b)
	return b.String()
}

// collectReplacedNodes finds every node whose text should be replaced by the
// placeholder, keyed by (start,end) byte offsets, plus an explicit "CONST"
// override for literal nodes.
func collectReplacedNodes(root *tree_sitter.Node, source []byte, ph string) map[[2]uint]string {
	out := make(map[[2]uint]string)
	pytree.Walk(root, func(n *tree_sitter.Node) {
		kind := n.Kind()
		switch kind {
		case "identifier":
			if isAttributeSuffix(n) {
				return // handled by the "attribute" case below
			}
			out[span(n)] = ph
		case "attribute":
			attr := n.ChildByFieldName("attribute")
			if attr != nil {
				out[span(attr)] = ph
			}
		case "string", "integer", "float", "true", "false", "none":
			out[span(n)] = "CONST"
		case "function_definition", "class_definition":
			name := n.ChildByFieldName("name")
			if name != nil {
				out[span(name)] = ph
			}
		case "parameters", "lambda_parameters":
			markParamNames(n, out, ph)
		}
	})
	return out
}

func markParamNames(params *tree_sitter.Node, out map[[2]uint]string, ph string) {
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		switch child.Kind() {
		case "identifier":
			out[span(child)] = ph
		case "typed_parameter", "default_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern":
			name := firstIdentifier(child)
			if name != nil {
				out[span(name)] = ph
			}
		}
	}
}

func firstIdentifier(n *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child.Kind() == "identifier" {
			return child
		}
	}
	return nil
}

// isAttributeSuffix reports whether identifier node n is the "attribute"
// field of a parent attribute node (e.g. the "bar" in "foo.bar"); those are
// rewritten via the "attribute" case so the base expression ("foo") still
// recurses through normal identifier replacement.
func isAttributeSuffix(n *tree_sitter.Node) bool {
	parent := n.Parent()
	if parent == nil || parent.Kind() != "attribute" {
		return false
	}
	attr := parent.ChildByFieldName("attribute")
	return attr != nil && attr.StartByte() == n.StartByte() && attr.EndByte() == n.EndByte()
}

func span(n *tree_sitter.Node) [2]uint {
	return [2]uint{n.StartByte(), n.EndByte()}
}

// emitLeaves walks the tree emitting each leaf's (possibly replaced) text,
// space-separated, skipping leaves nested inside an already-replaced span.
func emitLeaves(node *tree_sitter.Node, source []byte, replace map[[2]uint]string, b *strings.Builder) {
	if repl, ok := replace[span(node)]; ok {
		writeToken(b, repl)
		return
	}
	if node.Kind() == "comment" {
		// Keep the comment's line break so comment stripping removes only
		// the comment, not the tokens emitted after it.
		writeToken(b, pytree.NodeText(node, source))
		b.WriteByte('\n')
		return
	}
	if node.ChildCount() == 0 {
		writeToken(b, pytree.NodeText(node, source))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		emitLeaves(node.Child(i), source, replace, b)
	}
}

func writeToken(b *strings.Builder, tok string) {
	if tok == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(tok)
}

func stripComments(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// ImportRef is one import edge discovered in a file.
type ImportRef struct {
	FullName string
	RootName string
}

// IterImports walks import_statement and import_from_statement nodes,
// yielding every import unconditionally (module resolution and layer
// filtering are the architecture engine's job, not this one's).
func IterImports(f *pytree.File) []ImportRef {
	var out []ImportRef
	pytree.Walk(f.Root(), func(n *tree_sitter.Node) {
		switch n.Kind() {
		case "import_statement":
			for i := uint(0); i < n.ChildCount(); i++ {
				child := n.Child(i)
				switch child.Kind() {
				case "dotted_name":
					name := pytree.NodeText(child, f.Source)
					out = append(out, ImportRef{FullName: name, RootName: rootOf(name)})
				case "aliased_import":
					name := child.ChildByFieldName("name")
					if name != nil {
						text := pytree.NodeText(name, f.Source)
						out = append(out, ImportRef{FullName: text, RootName: rootOf(text)})
					}
				}
			}
		case "import_from_statement":
			mod := n.ChildByFieldName("module_name")
			if mod == nil {
				return
			}
			name := pytree.NodeText(mod, f.Source)
			if strings.HasPrefix(name, ".") {
				// Relative imports resolve to a module-qualified name the
				// architecture engine's caller is responsible for; here we
				// surface the raw relative spelling. A bare "from . import
				// x" yields an empty module name.
				stripped := strings.TrimLeft(name, ".")
				if stripped == "" {
					out = append(out, ImportRef{FullName: "", RootName: ""})
					return
				}
				out = append(out, ImportRef{FullName: name, RootName: rootOf(stripped)})
				return
			}
			out = append(out, ImportRef{FullName: name, RootName: rootOf(name)})
		}
	})
	return out
}

func rootOf(dotted string) string {
	if dotted == "" {
		return ""
	}
	parts := strings.SplitN(dotted, ".", 2)
	return parts[0]
}

// AnnotationCoverage counts annotated vs. total parameter/return slots across
// every function definition in the file, including nested ones.
func AnnotationCoverage(f *pytree.File) (annotated, total int) {
	pytree.Walk(f.Root(), func(n *tree_sitter.Node) {
		if n.Kind() != "function_definition" {
			return
		}
		if n.ChildByFieldName("return_type") != nil {
			annotated++
		}
		total++

		params := n.ChildByFieldName("parameters")
		if params == nil {
			return
		}
		for i := uint(0); i < params.ChildCount(); i++ {
			child := params.Child(i)
			switch child.Kind() {
			case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
				total++
			case "typed_parameter":
				total++
				annotated++
			case "default_parameter":
				total++
			case "typed_default_parameter":
				total++
				annotated++
			}
		}
	})
	return annotated, total
}
