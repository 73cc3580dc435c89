package cfront

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/magnusjonsson/unitc/internal/diagnostic"
)

func sliceContent(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	if start < 0 || end < start || end > len(source) {
		return ""
	}
	return string(source[start:end])
}

// position returns the one-based line and column of node
func position(node *sitter.Node) (int, int) {
	if node == nil {
		return 0, 0
	}
	p := node.StartPosition()
	return int(p.Row) + 1, int(p.Column) + 1
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		return child
	}
	return nil
}

// namedChildren returns the named children of node, skipping comments
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// fieldChildren returns every child of node stored under field. C
// declarations repeat the declarator field once per declarator.
func fieldChildren(node *sitter.Node, field string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) != field {
			continue
		}
		if child := node.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func childrenOfKind(node *sitter.Node, kind string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}

// unquote returns the contents of a C string literal
func unquote(lit string) string {
	if s, err := strconv.Unquote(lit); err == nil {
		return s
	}
	return strings.TrimSuffix(strings.TrimPrefix(lit, `"`), `"`)
}

// reportSyntaxErrors adds one diagnostic per ERROR or MISSING node. The
// contents of an ERROR node are not searched further.
func reportSyntaxErrors(root *sitter.Node, source []byte, diag *diagnostic.Diagnostics) {
	walkNodes(root, func(node *sitter.Node) bool {
		line, col := position(node)
		switch {
		case node.IsMissing():
			diag.Errorf(line, col, "syntax error: expected %s", formatExpectedKind(node.Kind()))
			return false
		case node.IsError():
			diag.Errorf(line, col, "syntax error near %q", snippet(sliceContent(node, source)))
			return false
		}
		return node.HasError()
	})
}

func walkNodes(root *sitter.Node, visit func(node *sitter.Node) bool) {
	if root == nil || !visit(root) {
		return
	}
	for i := uint(0); i < root.ChildCount(); i++ {
		if child := root.Child(i); child != nil {
			walkNodes(child, visit)
		}
	}
}

func formatExpectedKind(kind string) string {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return "token"
	}
	if strings.IndexFunc(trimmed, func(r rune) bool { return r == '_' || 'a' <= r && r <= 'z' }) < 0 {
		return fmt.Sprintf("'%s'", trimmed)
	}
	return strings.ReplaceAll(trimmed, "_", " ")
}

func snippet(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if len(text) > 24 {
		text = text[:24] + "..."
	}
	return text
}
