// Package complexity computes a Sonar-style cognitive complexity score for
// Python functions: +1 per control structure, plus the current nesting depth,
// plus a bonus for chained boolean operators, plus one for every return.
package complexity

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codequotient/cq/internal/pytree"
)

// Scale configures the score curve applied to raw complexity per line.
type Scale struct {
	TargetPerLOC float64
	HardCap      int
}

// Result holds one file's complexity measurement.
type Result struct {
	Raw    int
	PerLOC float64
	Score  float64
}

// Compute walks the whole file and scores it against loc and scale.
func Compute(f *pytree.File, loc int, scale Scale) Result {
	raw := newWalker().walk(f.Root())
	if loc < 1 {
		loc = 1
	}
	per := float64(raw) / float64(loc)

	var score float64
	if raw >= scale.HardCap {
		score = 0.0
	} else {
		target := scale.TargetPerLOC
		if target <= 0 {
			target = 1e-6
		}
		ratio := per / target
		if ratio > 1.0 {
			ratio = 1.0
		}
		score = 100.0 * (1 - ratio)
		if score < 0 {
			score = 0
		}
	}
	return Result{Raw: raw, PerLOC: per, Score: score}
}

// walker replicates the reference implementation's enter()/leave() nesting
// stack: each control structure adds 1 plus the current stack depth, then
// pushes its own frame for children; leave() pops it. Boolean operators and
// return statements add a flat +1 and push no frame.
type walker struct {
	complexity int
	depth      int
}

func newWalker() *walker {
	return &walker{}
}

func (w *walker) enter() {
	w.complexity += 1 + w.depth
	w.depth++
}

func (w *walker) leave() {
	if w.depth > 0 {
		w.depth--
	}
}

func (w *walker) walk(n *tree_sitter.Node) int {
	w.visit(n)
	return w.complexity
}

// visit dispatches on node kind, mirroring the reference visitor's
// visit_If/visit_For/visit_While/visit_With/visit_Try/visit_BoolOp/visit_Return
// overrides, and otherwise recurses into every child (generic_visit).
func (w *walker) visit(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "if_statement":
		w.visitIf(n)
	case "for_statement":
		w.enter()
		w.visitChildren(n)
		w.leave()
	case "while_statement":
		w.enter()
		w.visitChildren(n)
		w.leave()
	case "with_statement":
		w.enter()
		w.visitChildren(n)
		w.leave()
	case "try_statement":
		w.visitTry(n)
	case "boolean_operator":
		w.visitBoolOp(n)
	case "return_statement":
		w.complexity++
		w.visitChildren(n)
	default:
		w.visitChildren(n)
	}
}

func (w *walker) visitChildren(n *tree_sitter.Node) {
	for i := uint(0); i < n.ChildCount(); i++ {
		w.visit(n.Child(i))
	}
}

// visitIf handles if_statement's condition/consequence/elif_clause*/
// else_clause. Tree-sitter's grammar is flat (elif_clause siblings, not
// CPython's nested If-in-orelse), so the chain is walked explicitly: the
// "if" gets its own frame, and each elif_clause gets its own frame nested
// one level deeper than the previous link. A plain else_clause is not an
// if, so it is visited in whatever frame is current, with no frame of its
// own; an else that is itself another if gets one via the normal recursion
// into if_statement.
func (w *walker) visitIf(n *tree_sitter.Node) {
	w.enter()
	cond := n.ChildByFieldName("condition")
	w.visit(cond)
	consequence := n.ChildByFieldName("consequence")
	w.visit(consequence)

	elifCount := 0
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case "elif_clause":
			w.enter()
			elifCount++
			elifCond := child.ChildByFieldName("condition")
			w.visit(elifCond)
			elifBody := child.ChildByFieldName("consequence")
			w.visit(elifBody)
		case "else_clause":
			w.visitChildren(child)
		}
	}
	for i := 0; i < elifCount; i++ {
		w.leave()
	}
	w.leave()
}

func (w *walker) visitTry(n *tree_sitter.Node) {
	w.enter()

	var handlers, elseBody, finallyBody, body []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case "except_clause", "except_group_clause":
			handlers = append(handlers, child)
		case "finally_clause":
			finallyBody = append(finallyBody, child)
		case "else_clause":
			elseBody = append(elseBody, child)
		case "block":
			body = append(body, child)
		}
	}

	for _, h := range handlers {
		w.enter()
		w.visitChildren(h)
		w.leave()
	}
	if len(finallyBody) > 0 {
		w.enter()
		for _, fb := range finallyBody {
			w.visitChildren(fb)
		}
		w.leave()
	}
	for _, b := range body {
		w.visitChildren(b)
	}
	for _, e := range elseBody {
		w.visitChildren(e)
	}
	w.leave()
}

func (w *walker) visitBoolOp(n *tree_sitter.Node) {
	// CPython's ast.BoolOp flattens a run of the same operator into one node
	// with N values and bonuses max(0, N-1) once. Tree-sitter instead nests
	// each run as N-1 binary boolean_operator nodes, so crediting +1 per
	// binary node here reproduces the identical total bonus across the run.
	w.complexity++
	w.visitChildren(n)
}
