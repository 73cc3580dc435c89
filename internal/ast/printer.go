package ast

import (
	"fmt"
	"strings"
)

// Annotator returns extra text to show after a node, or "" for none.
// The checker uses it to print inferred units.
type Annotator func(Node) string

// Print returns a tree-like string representation of the node for debugging
func Print(node Node) string {
	return PrintAnnotated(node, nil)
}

// PrintAnnotated is Print with a per-node annotation
func PrintAnnotated(node Node, annotate Annotator) string {
	var sb strings.Builder
	printNode(&sb, node, 0, annotate)
	return sb.String()
}

// PrintProgram returns a tree-like representation of a whole program
func PrintProgram(prog *Program, annotate Annotator) string {
	var sb strings.Builder
	sb.WriteString("Program\n")
	for _, g := range prog.Globals {
		printNode(&sb, g, 1, annotate)
	}
	for _, fn := range prog.Functions {
		sb.WriteString(fmt.Sprintf("  Function: %s%s\n", fn.Name, attrSuffix("unit", fn.Unit)))
		if fn.Result != nil {
			sb.WriteString("    Result: " + describeDecl(fn.Result) + "\n")
		}
		if len(fn.Params) > 0 {
			sb.WriteString("    Params:\n")
			for _, p := range fn.Params {
				sb.WriteString("      " + describeDecl(p) + "\n")
			}
		} else {
			sb.WriteString("    Params: none\n")
		}
		if fn.Body != nil {
			sb.WriteString("    Body:\n")
			printNode(&sb, fn.Body, 3, annotate)
		}
	}
	return sb.String()
}

func attrSuffix(label string, a *Attribute) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf(" [%s %q]", label, a.Text)
}

func describeDecl(d *Decl) string {
	if d == nil {
		return "<nil>"
	}
	typeName := "?"
	var typeUnit *Attribute
	if d.Type != nil {
		typeName = d.Type.Name
		typeUnit = d.Type.Unit
	}
	return fmt.Sprintf("%s: %s%s%s", d.Ident, typeName, attrSuffix("type unit", typeUnit), attrSuffix("unit", d.Unit))
}

func printNode(sb *strings.Builder, node Node, indent int, annotate Annotator) {
	if node == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	suffix := ""
	if annotate != nil {
		if note := annotate(node); note != "" {
			suffix = "  :: " + note
		}
	}

	switch n := node.(type) {
	case *Literal:
		sb.WriteString(fmt.Sprintf("%sLiteral: %s%s\n", prefix, n.Value, suffix))

	case *Ref:
		name := "<nil>"
		if n.Decl != nil {
			name = n.Decl.Ident
		}
		sb.WriteString(fmt.Sprintf("%s%s: %s%s\n", prefix, refLabel(n.RefKind), name, suffix))

	case *Return:
		sb.WriteString(fmt.Sprintf("%sReturn%s\n", prefix, suffix))
		printNode(sb, n.Value, indent+1, annotate)

	case *DeclStmt:
		sb.WriteString(fmt.Sprintf("%sDeclStmt%s\n", prefix, suffix))
		if n.Decl != nil {
			printNode(sb, n.Decl, indent+1, annotate)
		}

	case *VarDecl:
		sb.WriteString(fmt.Sprintf("%sVarDecl: %s%s\n", prefix, describeDecl(n.Decl), suffix))
		if n.Init != nil {
			sb.WriteString(fmt.Sprintf("%s  Init:\n", prefix))
			printNode(sb, n.Init, indent+2, annotate)
		}

	case *Assign:
		label := "Assign"
		if n.Label != "" {
			label = fmt.Sprintf("Assign (%s)", n.Label)
		}
		sb.WriteString(fmt.Sprintf("%s%s%s\n", prefix, label, suffix))
		printNode(sb, n.Left, indent+1, annotate)
		printNode(sb, n.Right, indent+1, annotate)

	case *Binary:
		sb.WriteString(fmt.Sprintf("%sBinary: %s%s\n", prefix, n.Op, suffix))
		printNode(sb, n.Left, indent+1, annotate)
		printNode(sb, n.Right, indent+1, annotate)

	case *Unary:
		sb.WriteString(fmt.Sprintf("%sNeg%s\n", prefix, suffix))
		printNode(sb, n.Operand, indent+1, annotate)

	case *Bind:
		sb.WriteString(fmt.Sprintf("%sBind%s\n", prefix, suffix))
		printNode(sb, n.Body, indent+1, annotate)

	case *StmtList:
		sb.WriteString(fmt.Sprintf("%sStmtList%s\n", prefix, suffix))
		for _, stmt := range n.Stmts {
			printNode(sb, stmt, indent+1, annotate)
		}

	case *Cast:
		typeName := "?"
		if n.Type != nil {
			typeName = n.Type.Name
		}
		sb.WriteString(fmt.Sprintf("%sCast: %s%s\n", prefix, typeName, suffix))
		printNode(sb, n.Value, indent+1, annotate)

	case *Other:
		sb.WriteString(fmt.Sprintf("%sOther: %s%s\n", prefix, n.Label, suffix))
		for _, arg := range n.Args {
			printNode(sb, arg, indent+1, annotate)
		}

	default:
		sb.WriteString(fmt.Sprintf("%s%s%s\n", prefix, node.Kind(), suffix))
		for _, op := range node.Operands() {
			printNode(sb, op, indent+1, annotate)
		}
	}
}

func refLabel(k Kind) string {
	switch k {
	case KindParam:
		return "Param"
	case KindResult:
		return "Result"
	default:
		return "Var"
	}
}
