package cfront

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/magnusjonsson/unitc/internal/ast"
	"github.com/magnusjonsson/unitc/internal/diagnostic"
)

type lowerer struct {
	source []byte
	attr   string
	diag   *diagnostic.Diagnostics
	scope  *Scope
	prog   *ast.Program

	// result is the result declaration of the function being lowered,
	// nil outside functions and in void functions
	result *ast.Decl

	// trailing holds attributes written after a declarator, keyed by the
	// end byte of that declarator
	trailing map[uint][]*ast.Attribute

	// conditional counts the preprocessor conditionals being lowered.
	// Their branches may declare the same name.
	conditional int
}

func newLowerer(source []byte, attr string, diag *diagnostic.Diagnostics) *lowerer {
	return &lowerer{
		source:   source,
		attr:     attr,
		diag:     diag,
		scope:    NewScope(nil),
		prog:     &ast.Program{},
		trailing: make(map[uint][]*ast.Attribute),
	}
}

func (l *lowerer) text(node *sitter.Node) string {
	return sliceContent(node, l.source)
}

func (l *lowerer) pushScope() {
	l.scope = NewScope(l.scope)
}

func (l *lowerer) popScope() {
	if l.scope.parent != nil {
		l.scope = l.scope.parent
	}
}

func (l *lowerer) define(name string, sym *Symbol, node *sitter.Node) {
	if l.scope.IsFileScope() || l.conditional > 0 {
		l.scope.Redefine(name, sym)
		return
	}
	if err := l.scope.Define(name, sym); err != nil {
		line, col := position(node)
		l.diag.Errorf(line, col, "%s", err)
	}
}

func (l *lowerer) translationUnit(root *sitter.Node) {
	l.externalDeclarations(namedChildren(root))
}

func (l *lowerer) externalDeclarations(nodes []*sitter.Node) {
	for _, child := range nodes {
		switch child.Kind() {
		case "function_definition":
			l.functionDefinition(child)
		case "declaration":
			l.prog.Globals = append(l.prog.Globals, l.declaration(child)...)
		case "type_definition":
			l.typeDefinition(child)
		default:
			if isConditional(child.Kind()) {
				l.conditional++
				l.externalDeclarations(conditionalItems(child))
				l.conditional--
			}
		}
	}
}

// conditionalItems returns the code of every branch of a preprocessor
// conditional. The condition is not evaluated, so all branches are lowered.
func conditionalItems(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		switch node.FieldNameForChild(uint32(i)) {
		case "name", "condition":
			continue
		}
		out = append(out, child)
	}
	return out
}

func isConditional(kind string) bool {
	switch kind {
	case "preproc_if", "preproc_ifdef", "preproc_elif", "preproc_elifdef", "preproc_else":
		return true
	}
	return false
}

// specifiers are the parts of a declaration around its declarator.
// Attributes written before the type specifier or after the declarator
// belong to the declaration; attributes between the two belong to the type.
type specifiers struct {
	typeNode  *sitter.Node
	declAttrs []*ast.Attribute
	typeAttrs []*ast.Attribute
}

func (l *lowerer) readSpecifiers(node *sitter.Node) specifiers {
	spec := specifiers{typeNode: node.ChildByFieldName("type")}
	declarator := node.ChildByFieldName("declarator")
	for _, child := range childrenOfKind(node, "attribute_specifier") {
		attrs := l.unitAttributes(child)
		start := child.StartByte()
		switch {
		case declarator != nil && start > declarator.StartByte():
			spec.declAttrs = append(spec.declAttrs, attrs...)
		case spec.typeNode != nil && start > spec.typeNode.StartByte():
			spec.typeAttrs = append(spec.typeAttrs, attrs...)
		default:
			spec.declAttrs = append(spec.declAttrs, attrs...)
		}
	}
	return spec
}

// typeRef names the declared type. An attribute written on the type
// takes precedence over the unit of a typedef it names.
func (l *lowerer) typeRef(spec specifiers) *ast.TypeRef {
	t := &ast.TypeRef{Name: "?"}
	if spec.typeNode != nil {
		t.Name = strings.Join(strings.Fields(l.text(spec.typeNode)), " ")
		t.Line, t.Column = position(spec.typeNode)
		if spec.typeNode.Kind() == "type_identifier" {
			if sym := l.scope.Resolve(t.Name); sym != nil && sym.Kind == SymTypedef && sym.Type != nil {
				t.Unit = sym.Type.Unit
			}
		}
	}
	if len(spec.typeAttrs) > 0 {
		t.Unit = spec.typeAttrs[0]
	}
	return t
}

func (l *lowerer) record(attrs []*ast.Attribute, site ast.Site, owner string, node *sitter.Node) {
	line, col := position(node)
	for _, a := range attrs {
		l.prog.Annotations = append(l.prog.Annotations, &ast.Annotation{
			Attr:        a,
			Site:        site,
			Owner:       owner,
			OwnerLine:   line,
			OwnerColumn: col,
		})
	}
}

func firstAttr(attrs []*ast.Attribute) *ast.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	return attrs[0]
}

// unitAttributes extracts the unit attributes of one attribute_specifier,
// which may list several attributes: __attribute__((pure, unit("m")))
func (l *lowerer) unitAttributes(spec *sitter.Node) []*ast.Attribute {
	args := firstNamedChild(spec)
	if args == nil || args.Kind() != "argument_list" {
		return nil
	}

	var attrs []*ast.Attribute
	for _, item := range namedChildren(args) {
		line, col := position(item)
		switch item.Kind() {
		case "identifier":
			if l.isUnitAttribute(l.text(item)) {
				l.diag.Errorf(line, col, "%s attribute takes exactly one argument, got 0", l.attr)
			}
		case "call_expression":
			if !l.isUnitAttribute(l.text(item.ChildByFieldName("function"))) {
				continue
			}
			params := namedChildren(item.ChildByFieldName("arguments"))
			if len(params) != 1 {
				l.diag.Errorf(line, col, "%s attribute takes exactly one argument, got %d", l.attr, len(params))
				continue
			}
			attrs = append(attrs, &ast.Attribute{Text: l.attributeText(params[0]), Line: line, Column: col})
		}
	}
	return attrs
}

func (l *lowerer) isUnitAttribute(name string) bool {
	return name == l.attr || name == "__"+l.attr+"__"
}

// attributeText returns the unit expression of an attribute argument.
// String literals are unquoted; anything else is taken as written, so
// unit(meters / seconds) and unit("meters / seconds") are equivalent.
func (l *lowerer) attributeText(arg *sitter.Node) string {
	switch arg.Kind() {
	case "string_literal":
		return unquote(l.text(arg))
	case "concatenated_string":
		var sb strings.Builder
		for _, part := range childrenOfKind(arg, "string_literal") {
			sb.WriteString(unquote(l.text(part)))
		}
		return sb.String()
	}
	return strings.TrimSpace(l.text(arg))
}

// unwrapDeclarator digs the declared name out of a declarator, along with
// the outermost function declarator and initializer, if any
func unwrapDeclarator(node *sitter.Node) (name, fn, init *sitter.Node) {
	for node != nil {
		switch node.Kind() {
		case "identifier", "type_identifier", "field_identifier":
			return node, fn, init
		case "init_declarator":
			init = node.ChildByFieldName("value")
			node = node.ChildByFieldName("declarator")
		case "function_declarator":
			if fn == nil {
				fn = node
			}
			node = node.ChildByFieldName("declarator")
		case "pointer_declarator", "array_declarator":
			node = node.ChildByFieldName("declarator")
		case "parenthesized_declarator", "attributed_declarator":
			node = firstNamedChild(node)
		default:
			return nil, fn, init
		}
	}
	return nil, fn, init
}

// declaratorEnd is the end byte of a declarator, before its initializer
func declaratorEnd(d *sitter.Node) uint {
	if d.Kind() == "init_declarator" {
		if inner := d.ChildByFieldName("declarator"); inner != nil {
			return inner.EndByte()
		}
	}
	return d.EndByte()
}

func (l *lowerer) newDecl(name *sitter.Node, spec specifiers, t *ast.TypeRef) *ast.Decl {
	line, col := position(name)
	return &ast.Decl{
		Ident:  l.text(name),
		Type:   t,
		Unit:   firstAttr(spec.declAttrs),
		Line:   line,
		Column: col,
	}
}

// declaration lowers a variable declaration into one VarDecl per
// declarator. Function prototypes only introduce a name.
func (l *lowerer) declaration(node *sitter.Node) []*ast.VarDecl {
	spec := l.readSpecifiers(node)
	t := l.typeRef(spec)

	var decls []*ast.VarDecl
	for _, d := range fieldChildren(node, "declarator") {
		name, fn, init := unwrapDeclarator(d)
		if name == nil {
			continue
		}
		if fn != nil {
			l.define(l.text(name), &Symbol{Name: l.text(name), Kind: SymFunction}, name)
			continue
		}

		dspec := spec
		if extra := l.trailing[declaratorEnd(d)]; len(extra) > 0 {
			dspec.declAttrs = append(append([]*ast.Attribute(nil), spec.declAttrs...), extra...)
		}

		decl := l.newDecl(name, dspec, t)
		l.define(decl.Ident, &Symbol{Name: decl.Ident, Kind: SymVariable, Decl: decl}, name)
		l.record(dspec.declAttrs, ast.SiteDeclaration, decl.Ident, name)
		l.record(dspec.typeAttrs, ast.SiteType, decl.Ident, name)

		line, col := position(d)
		vd := &ast.VarDecl{Decl: decl, Line: line, Column: col}
		if init != nil {
			vd.Init = l.expr(init)
		}
		decls = append(decls, vd)
	}
	return decls
}

// typeDefinition records the unit a typedef name carries. Attributes
// written anywhere in the typedef apply; a typedef of a typedef inherits
// the unit of the type it renames.
func (l *lowerer) typeDefinition(node *sitter.Node) {
	base := l.typeRef(specifiers{typeNode: node.ChildByFieldName("type")})

	var attrs []*ast.Attribute
	for _, spec := range childrenOfKind(node, "attribute_specifier") {
		attrs = append(attrs, l.unitAttributes(spec)...)
	}
	unit := base.Unit
	if len(attrs) > 0 {
		unit = attrs[0]
	}

	for _, d := range fieldChildren(node, "declarator") {
		name, _, _ := unwrapDeclarator(d)
		if name == nil {
			continue
		}
		line, col := position(name)
		typeName := l.text(name)
		l.define(typeName, &Symbol{
			Name: typeName,
			Kind: SymTypedef,
			Type: &ast.TypeRef{Name: typeName, Unit: unit, Line: line, Column: col},
		}, name)
		l.record(attrs, ast.SiteTypedef, typeName, name)
	}
}

func (l *lowerer) functionDefinition(node *sitter.Node) {
	declarator := node.ChildByFieldName("declarator")
	name, fnDecl, _ := unwrapDeclarator(declarator)
	if name == nil || fnDecl == nil {
		return
	}

	spec := l.readSpecifiers(node)
	fnAttrs := spec.declAttrs
	for _, child := range childrenOfKind(fnDecl, "attribute_specifier") {
		fnAttrs = append(fnAttrs, l.unitAttributes(child)...)
	}

	line, col := position(node)
	fn := &ast.Function{
		Name:   l.text(name),
		Unit:   firstAttr(fnAttrs),
		Line:   line,
		Column: col,
	}
	l.define(fn.Name, &Symbol{Name: fn.Name, Kind: SymFunction}, name)
	l.record(fnAttrs, ast.SiteFunction, fn.Name, name)
	l.record(spec.typeAttrs, ast.SiteType, fn.Name, name)

	t := l.typeRef(spec)
	returnsValue := t.Name != "void" || declarator.Kind() != "function_declarator"
	if returnsValue {
		rl, rc := position(name)
		fn.Result = &ast.Decl{
			Ident:    fn.Name,
			Type:     t,
			FuncUnit: fn.Unit,
			Result:   true,
			Line:     rl,
			Column:   rc,
		}
	}

	outer := l.conditional
	l.conditional = 0
	l.pushScope()
	defer func() {
		l.popScope()
		l.conditional = outer
	}()

	for _, p := range childrenOfKind(fnDecl.ChildByFieldName("parameters"), "parameter_declaration") {
		pname, _, _ := unwrapDeclarator(p.ChildByFieldName("declarator"))
		if pname == nil {
			continue
		}
		pspec := l.readSpecifiers(p)
		decl := l.newDecl(pname, pspec, l.typeRef(pspec))
		l.define(decl.Ident, &Symbol{Name: decl.Ident, Kind: SymParam, Decl: decl}, pname)
		l.record(pspec.declAttrs, ast.SiteDeclaration, decl.Ident, pname)
		l.record(pspec.typeAttrs, ast.SiteType, decl.Ident, pname)
		fn.Params = append(fn.Params, decl)
	}

	l.result = fn.Result
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Body = l.compound(body)
	}
	l.result = nil

	l.prog.Functions = append(l.prog.Functions, fn)
}
