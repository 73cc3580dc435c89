package cfront

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/magnusjonsson/unitc/internal/ast"
)

var binaryOps = map[string]ast.Kind{
	"*":  ast.KindMul,
	"/":  ast.KindDiv,
	"+":  ast.KindAdd,
	"-":  ast.KindSub,
	"==": ast.KindEq,
	"!=": ast.KindNe,
	">=": ast.KindGe,
	"<=": ast.KindLe,
	">":  ast.KindGt,
	"<":  ast.KindLt,
}

// compoundOps maps compound assignment operators to the arithmetic they
// perform; x *= y is checked as x = x * y
var compoundOps = map[string]ast.Kind{
	"*=": ast.KindMul,
	"/=": ast.KindDiv,
	"+=": ast.KindAdd,
	"-=": ast.KindSub,
}

// compound lowers a block to a Bind of the variables it declares around
// the list of its statements
func (l *lowerer) compound(node *sitter.Node) ast.Node {
	l.pushScope()
	defer l.popScope()

	line, col := position(node)
	bind := &ast.Bind{Line: line, Column: col}
	list := &ast.StmtList{Line: line, Column: col}
	for _, child := range namedChildren(node) {
		list.Stmts = append(list.Stmts, l.statement(child, bind)...)
	}
	bind.Body = list
	return bind
}

func (l *lowerer) statement(node *sitter.Node, bind *ast.Bind) []ast.Node {
	line, col := position(node)

	switch node.Kind() {
	case "declaration":
		var stmts []ast.Node
		for _, vd := range l.declaration(node) {
			bind.Vars = append(bind.Vars, vd.Decl)
			stmts = append(stmts, &ast.DeclStmt{Decl: vd, Line: vd.Line, Column: vd.Column})
		}
		return stmts

	case "type_definition":
		l.typeDefinition(node)
		return nil

	case "expression_statement":
		if e := firstNamedChild(node); e != nil {
			return []ast.Node{l.expr(e)}
		}
		return nil

	case "return_statement":
		return []ast.Node{l.returnStatement(node)}

	case "compound_statement":
		return []ast.Node{l.compound(node)}

	case "if_statement", "else_clause", "while_statement", "do_statement", "for_statement",
		"switch_statement", "case_statement", "labeled_statement":
		return []ast.Node{l.control(node)}

	case "preproc_if", "preproc_ifdef", "preproc_elif", "preproc_elifdef", "preproc_else":
		l.conditional++
		defer func() { l.conditional-- }()
		var stmts []ast.Node
		for _, item := range conditionalItems(node) {
			stmts = append(stmts, l.statement(item, bind)...)
		}
		return stmts

	case "break_statement", "continue_statement", "goto_statement", "ERROR",
		"preproc_def", "preproc_function_def", "preproc_call", "preproc_include":
		return nil

	default:
		return []ast.Node{&ast.Other{Label: node.Kind(), Line: line, Column: col}}
	}
}

// control lowers a control statement to the sequence of its parts. Units
// do not depend on control flow, so every condition, body, and branch is
// checked in order. A for statement's declarations get their own scope.
func (l *lowerer) control(node *sitter.Node) ast.Node {
	l.pushScope()
	defer l.popScope()

	line, col := position(node)
	bind := &ast.Bind{Line: line, Column: col}
	list := &ast.StmtList{Line: line, Column: col}
	for _, child := range namedChildren(node) {
		switch {
		case child.Kind() == "statement_identifier":
		case isStatement(child.Kind()):
			list.Stmts = append(list.Stmts, l.statement(child, bind)...)
		default:
			list.Stmts = append(list.Stmts, l.expr(child))
		}
	}
	bind.Body = list
	return bind
}

func isStatement(kind string) bool {
	switch kind {
	case "declaration", "type_definition", "expression_statement", "return_statement",
		"compound_statement", "if_statement", "else_clause", "while_statement", "do_statement",
		"for_statement", "switch_statement", "case_statement", "labeled_statement",
		"break_statement", "continue_statement", "goto_statement":
		return true
	}
	return isConditional(kind)
}

// returnStatement lowers return e; to an assignment of e to the function
// result, so the value is checked against the result's unit
func (l *lowerer) returnStatement(node *sitter.Node) ast.Node {
	line, col := position(node)
	ret := &ast.Return{Line: line, Column: col}

	value := firstNamedChild(node)
	if value == nil {
		return ret
	}
	e := l.expr(value)
	if l.result == nil {
		ret.Value = e
		return ret
	}
	ret.Value = &ast.Assign{
		Label:  "return",
		Left:   &ast.Ref{RefKind: ast.KindResult, Decl: l.result, Line: line, Column: col},
		Right:  e,
		Line:   line,
		Column: col,
	}
	return ret
}

func (l *lowerer) expr(node *sitter.Node) ast.Node {
	line, col := position(node)

	switch node.Kind() {
	case "number_literal", "char_literal", "true", "false":
		text := l.text(node)
		return &ast.Literal{Value: text, Real: isReal(text), Line: line, Column: col}

	case "identifier":
		name := l.text(node)
		if sym := l.scope.Resolve(name); sym != nil && sym.Decl != nil {
			return &ast.Ref{RefKind: sym.refKind(), Decl: sym.Decl, Line: line, Column: col}
		}
		return &ast.Other{Label: "identifier " + name, Line: line, Column: col}

	case "parenthesized_expression":
		if inner := firstNamedChild(node); inner != nil {
			return l.expr(inner)
		}

	case "binary_expression":
		op := l.text(node.ChildByFieldName("operator"))
		left := l.operand(node.ChildByFieldName("left"))
		right := l.operand(node.ChildByFieldName("right"))
		if kind, ok := binaryOps[op]; ok {
			return &ast.Binary{Op: kind, Left: left, Right: right, Line: line, Column: col}
		}
		return &ast.Other{Label: "operator " + op, Args: []ast.Node{left, right}, Line: line, Column: col}

	case "unary_expression":
		op := l.text(node.ChildByFieldName("operator"))
		arg := l.operand(node.ChildByFieldName("argument"))
		switch op {
		case "-":
			return &ast.Unary{Operand: arg, Line: line, Column: col}
		case "+":
			return arg
		}
		return &ast.Other{Label: "operator " + op, Args: []ast.Node{arg}, Line: line, Column: col}

	case "assignment_expression":
		op := l.text(node.ChildByFieldName("operator"))
		left := l.operand(node.ChildByFieldName("left"))
		right := l.operand(node.ChildByFieldName("right"))
		if op == "=" {
			return &ast.Assign{Left: left, Right: right, Line: line, Column: col}
		}
		if kind, ok := compoundOps[op]; ok {
			value := &ast.Binary{Op: kind, Left: left, Right: right, Line: line, Column: col}
			return &ast.Assign{Left: left, Right: value, Line: line, Column: col}
		}
		return &ast.Other{Label: "operator " + op, Args: []ast.Node{left, right}, Line: line, Column: col}

	case "cast_expression":
		return &ast.Cast{
			Type:   l.typeDescriptor(node.ChildByFieldName("type")),
			Value:  l.operand(node.ChildByFieldName("value")),
			Line:   line,
			Column: col,
		}

	case "comma_expression":
		return &ast.StmtList{
			Stmts:  []ast.Node{l.operand(node.ChildByFieldName("left")), l.operand(node.ChildByFieldName("right"))},
			Line:   line,
			Column: col,
		}
	}

	other := &ast.Other{Label: node.Kind(), Line: line, Column: col}
	for _, child := range namedChildren(node) {
		if child.Kind() == "argument_list" {
			for _, arg := range namedChildren(child) {
				other.Args = append(other.Args, l.expr(arg))
			}
			continue
		}
		other.Args = append(other.Args, l.expr(child))
	}
	return other
}

// operand lowers an optional child; a missing operand becomes an Other
// so the checker treats it as unconstrained
func (l *lowerer) operand(node *sitter.Node) ast.Node {
	if node == nil {
		return &ast.Other{Label: "missing operand"}
	}
	return l.expr(node)
}

func (l *lowerer) typeDescriptor(node *sitter.Node) *ast.TypeRef {
	if node == nil {
		return &ast.TypeRef{Name: "?"}
	}
	return l.typeRef(specifiers{typeNode: node.ChildByFieldName("type")})
}

func isReal(text string) bool {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") {
		return strings.ContainsAny(lower, ".p")
	}
	return strings.ContainsAny(lower, ".e")
}
