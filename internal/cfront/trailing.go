package cfront

import (
	"bytes"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
)

// trailingSpan is a GNU attribute written after a declarator, as in
//
//	double x __attribute__((unit("meters")));
//
// GCC accepts this form but the C grammar only allows attributes before
// the declarator, so tree-sitter reports it as a syntax error.
type trailingSpan struct {
	start, end uint // bytes of the attribute
	after      uint // end byte of the declarator it follows
}

// findTrailingAttributes returns the attributes next to a syntax error
// that follow a declarator and precede one of ; , =
func findTrailingAttributes(root *sitter.Node, source []byte) []trailingSpan {
	var errs [][2]uint
	walkNodes(root, func(node *sitter.Node) bool {
		if node.IsError() || node.IsMissing() {
			errs = append(errs, [2]uint{node.StartByte(), skipSpace(source, node.EndByte())})
			return false
		}
		return node.HasError()
	})
	if len(errs) == 0 {
		return nil
	}

	var spans []trailingSpan
	for _, start := range attributeKeywords(source) {
		end, ok := attributeEnd(source, start)
		if !ok || !touchesAny(start, end, errs) {
			continue
		}
		after := skipSpaceBack(source, start)
		if after == 0 || !endsDeclarator(source[after-1]) {
			continue
		}
		next := skipSpace(source, end)
		if next >= uint(len(source)) || bytes.IndexByte([]byte(";,="), source[next]) < 0 {
			continue
		}
		spans = append(spans, trailingSpan{start: start, end: end, after: after})
	}
	return spans
}

func touchesAny(start, end uint, errs [][2]uint) bool {
	for _, e := range errs {
		if start <= e[1] && e[0] < end {
			return true
		}
	}
	return false
}

// attributeKeywords returns the offsets of every __attribute__ and
// __attribute keyword in source
func attributeKeywords(source []byte) []uint {
	var out []uint
	for i := 0; i < len(source); {
		j := bytes.Index(source[i:], []byte("__attribute"))
		if j < 0 {
			break
		}
		start := i + j
		end := start + len("__attribute")
		if bytes.HasPrefix(source[end:], []byte("__")) {
			end += 2
		}
		if (start == 0 || !isIdentByte(source[start-1])) && (end == len(source) || !isIdentByte(source[end])) {
			out = append(out, uint(start))
		}
		i = end
	}
	return out
}

// attributeEnd returns the offset just past the parenthesized arguments
// of the attribute keyword at start
func attributeEnd(source []byte, start uint) (uint, bool) {
	i := start
	for i < uint(len(source)) && isIdentByte(source[i]) {
		i++
	}
	i = skipSpace(source, i)
	if i >= uint(len(source)) || source[i] != '(' {
		return 0, false
	}

	depth := 0
	for ; i < uint(len(source)); i++ {
		switch source[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case '"':
			for i++; i < uint(len(source)) && source[i] != '"'; i++ {
				if source[i] == '\\' {
					i++
				}
			}
		}
	}
	return 0, false
}

// blankSpans replaces the bytes of each span with spaces, keeping line
// breaks so that every other node keeps its position
func blankSpans(source []byte, spans []trailingSpan) []byte {
	out := bytes.Clone(source)
	for _, s := range spans {
		for i := s.start; i < s.end; i++ {
			if out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
			}
		}
	}
	return out
}

// readTrailing parses each trailing attribute on its own, in front of a
// placeholder declaration, and reports its positions in the enclosing
// source
func (f *Frontend) readTrailing(source []byte, spans []trailingSpan, diag *diagnostic.Diagnostics) map[uint][]*ast.Attribute {
	out := make(map[uint][]*ast.Attribute)
	for _, s := range spans {
		text := append(bytes.Clone(source[s.start:s.end]), " int _;"...)
		tree := f.parser.Parse(text, nil)
		if tree == nil {
			continue
		}

		sub := newLowerer(text, f.attr, diagnostic.New())
		var attrs []*ast.Attribute
		if decl := firstNamedChild(tree.RootNode()); decl != nil && decl.Kind() == "declaration" {
			for _, spec := range childrenOfKind(decl, "attribute_specifier") {
				attrs = append(attrs, sub.unitAttributes(spec)...)
			}
		}
		tree.Close()

		line, col := offsetPosition(source, s.start)
		for _, a := range attrs {
			a.Line, a.Column = shiftPosition(line, col, a.Line, a.Column)
		}
		for _, item := range sub.diag.All() {
			item.Line, item.Column = shiftPosition(line, col, item.Line, item.Column)
			diag.Add(item)
		}
		out[s.after] = append(out[s.after], attrs...)
	}
	return out
}

// offsetPosition returns the one-based line and byte column of offset
func offsetPosition(source []byte, offset uint) (int, int) {
	head := source[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	return line, len(head) - bytes.LastIndexByte(head, '\n')
}

// shiftPosition maps a position in a snippet starting at (line, col) to
// the enclosing source
func shiftPosition(line, col, l, c int) (int, int) {
	if l == 1 {
		return line, col + c - 1
	}
	return line + l - 1, c
}

func skipSpace(source []byte, i uint) uint {
	for i < uint(len(source)) && isSpace(source[i]) {
		i++
	}
	return i
}

func skipSpaceBack(source []byte, i uint) uint {
	for i > 0 && isSpace(source[i-1]) {
		i--
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}

func isIdentByte(b byte) bool {
	return b == '_' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9'
}

func endsDeclarator(b byte) bool {
	return isIdentByte(b) || b == ')' || b == ']'
}
