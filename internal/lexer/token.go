package lexer

import "fmt"

// TokenType represents the type of a token in a unit expression
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENT  // meters, seconds
	ONE    // 1
	NUMBER // any other digit run; never a valid factor

	// Operators
	STAR  // *
	SLASH // /

	// Delimiters
	LPAREN // (
	RPAREN // )
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case ONE:
		return "ONE"
	case NUMBER:
		return "NUMBER"
	case STAR:
		return "STAR"
	case SLASH:
		return "SLASH"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Describe returns a human-readable description of the token for
// diagnostics
func (t Token) Describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENT:
		return fmt.Sprintf("unit %q", t.Literal)
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
