package parser

import (
	"fmt"

	"github.com/magnusjonsson/unitc/internal/lexer"
)

// SyntaxError describes why a unit expression could not be parsed
type SyntaxError struct {
	Input   string
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parser holds the parser state
type Parser struct {
	tokens []lexer.Token
	pos    int
	input  string
	err    *SyntaxError
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches the expected type,
// otherwise records an error
func (p *Parser) expect(tt lexer.TokenType, what string) lexer.Token {
	tok := p.current()
	if tok.Type != tt {
		p.errorf(tok, "expected %s, got %s", what, tok.Describe())
		return tok
	}
	return p.advance()
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// errorf records the first error; later errors are consequences of it
func (p *Parser) errorf(tok lexer.Token, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	p.err = &SyntaxError{
		Input:   p.input,
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

// failed reports whether an error has been recorded
func (p *Parser) failed() bool {
	return p.err != nil
}
