// Package cfront turns C source into the expression tree the unit checker
// walks. Parsing is done by tree-sitter; unit annotations are read from
// GNU attributes such as __attribute__((unit("meters / seconds"))).
package cfront

import (
	"github.com/pkg/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
)

// DefaultAttribute is the attribute name read when none is configured
const DefaultAttribute = "unit"

// Frontend wraps a tree-sitter parser configured for C. A Frontend is not
// safe for concurrent use; create one per goroutine.
type Frontend struct {
	parser *sitter.Parser
	attr   string
}

// New constructs a frontend reading unit attributes named attr
func New(attr string) (*Frontend, error) {
	if attr == "" {
		attr = DefaultAttribute
	}
	p := sitter.NewParser()
	if err := p.SetLanguage(sitter.NewLanguage(tree_sitter_c.Language())); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "cfront: load C grammar")
	}
	return &Frontend{parser: p, attr: attr}, nil
}

// Close releases parser resources
func (f *Frontend) Close() {
	if f == nil || f.parser == nil {
		return
	}
	f.parser.Close()
	f.parser = nil
}

// Parse lowers one translation unit. Problems in the source, including
// syntax errors and misused attributes, are returned as diagnostics; the
// error result is reserved for failures of the parser itself.
func (f *Frontend) Parse(source []byte) (*ast.Program, *diagnostic.Diagnostics, error) {
	if f == nil || f.parser == nil {
		return nil, nil, errors.New("cfront: parser is closed")
	}

	tree, root, err := f.parse(source)
	if err != nil {
		return nil, nil, err
	}
	defer func() { tree.Close() }()

	diag := diagnostic.New()
	var trailing map[uint][]*ast.Attribute
	if root.HasError() {
		if spans := findTrailingAttributes(root, source); len(spans) > 0 {
			blanked := blankSpans(source, spans)
			if retry, retryRoot, err := f.parse(blanked); err == nil && !retryRoot.HasError() {
				tree.Close()
				tree, root = retry, retryRoot
				trailing = f.readTrailing(source, spans, diag)
				source = blanked
			} else if err == nil {
				retry.Close()
			}
		}
	}
	if root.HasError() {
		reportSyntaxErrors(root, source, diag)
	}

	l := newLowerer(source, f.attr, diag)
	if trailing != nil {
		l.trailing = trailing
	}
	l.translationUnit(root)
	return l.prog, diag, nil
}

func (f *Frontend) parse(source []byte) (*sitter.Tree, *sitter.Node, error) {
	tree := f.parser.Parse(source, nil)
	if tree == nil {
		return nil, nil, errors.New("cfront: parse returned no tree")
	}
	root := tree.RootNode()
	if root == nil || root.Kind() != "translation_unit" {
		tree.Close()
		return nil, nil, errors.New("cfront: unexpected root node")
	}
	return tree, root, nil
}

// Parse is a convenience wrapper that builds a frontend, lowers source,
// and releases the frontend
func Parse(source []byte, attr string) (*ast.Program, *diagnostic.Diagnostics, error) {
	f, err := New(attr)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return f.Parse(source)
}
