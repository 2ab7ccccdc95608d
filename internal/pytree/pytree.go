// Package pytree provides pooled Tree-sitter parsing of Python source files.
//
// Tree-sitter parsers require CGO_ENABLED=1 and are not safe for concurrent
// use; every Parse call is serialized behind a mutex, while the resulting
// trees are safe to read concurrently once parsing finishes.
package pytree

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// File holds a parsed syntax tree alongside the source bytes it was parsed
// from. Callers must call Close when done with it.
type File struct {
	Path   string
	Source []byte
	Tree   *tree_sitter.Tree
	HasErr bool
}

// Close releases the underlying Tree-sitter tree.
func (f *File) Close() {
	if f != nil && f.Tree != nil {
		f.Tree.Close()
	}
}

// Root returns the tree's root node.
func (f *File) Root() *tree_sitter.Node {
	return f.Tree.RootNode()
}

// Pool is a single pooled Python parser shared across an analysis run.
type Pool struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

// NewPool creates a pooled Python parser.
func NewPool() (*Pool, error) {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(lang); err != nil {
		parser.Close()
		return nil, fmt.Errorf("set python language: %w", err)
	}
	return &Pool{parser: parser}, nil
}

// Close releases the pooled parser.
func (p *Pool) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// Parse parses source into a File. parseOK mirrors the reference
// implementation's safe_parse: false whenever the tree contains an ERROR or
// MISSING node anywhere, true otherwise. Tree-sitter never fails outright, so
// this is the only signal of "the file didn't really parse."
func (p *Pool) Parse(path string, source []byte) (*File, bool) {
	p.mu.Lock()
	tree := p.parser.Parse(source, nil)
	p.mu.Unlock()

	if tree == nil {
		return nil, false
	}
	hasErr := tree.RootNode().HasError()
	return &File{Path: path, Source: source, Tree: tree, HasErr: hasErr}, !hasErr
}

// NodeText returns the source slice a node spans.
func NodeText(n *tree_sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(source) {
		end = uint(len(source))
	}
	if int(start) > len(source) {
		return ""
	}
	return string(source[start:end])
}

// Walk visits node and every descendant depth-first.
func Walk(node *tree_sitter.Node, fn func(*tree_sitter.Node)) {
	if node == nil {
		return
	}
	fn(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		Walk(node.Child(i), fn)
	}
}
