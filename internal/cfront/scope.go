package cfront

import (
	"github.com/pkg/errors"

	"github.com/magnusjonsson/unitc/internal/ast"
)

// SymbolKind represents the kind of an ordinary C identifier
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymParam
	SymFunction
	SymTypedef
)

// String returns the string representation of the symbol kind
func (sk SymbolKind) String() string {
	switch sk {
	case SymVariable:
		return "variable"
	case SymParam:
		return "parameter"
	case SymFunction:
		return "function"
	case SymTypedef:
		return "typedef"
	default:
		return "unknown"
	}
}

// Symbol is one entry of the symbol table. Variables and parameters carry
// their declaration; typedefs carry the type they name.
type Symbol struct {
	Name string
	Kind SymbolKind
	Decl *ast.Decl
	Type *ast.TypeRef
}

func (s *Symbol) refKind() ast.Kind {
	if s.Kind == SymParam {
		return ast.KindParam
	}
	return ast.KindVar
}

// Scope represents a lexical scope. Typedef names share the ordinary
// identifier namespace, as in C.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

// NewScope creates a new scope with an optional parent
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Define adds a symbol to the current scope.
// Returns an error if the symbol is already defined in this scope.
func (s *Scope) Define(name string, sym *Symbol) error {
	if _, exists := s.symbols[name]; exists {
		return errors.Errorf("symbol '%s' already defined in this scope", name)
	}
	s.symbols[name] = sym
	return nil
}

// Redefine adds or replaces a symbol in the current scope. File scope
// uses it, since C allows repeated external declarations.
func (s *Scope) Redefine(name string, sym *Symbol) {
	s.symbols[name] = sym
}

// Resolve looks up a symbol in the current scope and parent scopes.
// Returns nil if the symbol is not found.
func (s *Scope) Resolve(name string) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	if s.parent != nil {
		return s.parent.Resolve(name)
	}
	return nil
}

// IsFileScope reports whether s has no parent
func (s *Scope) IsFileScope() bool {
	return s.parent == nil
}
