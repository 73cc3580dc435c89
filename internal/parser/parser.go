package parser

import (
	"github.com/magnusjonsson/unitc/internal/lexer"
	"github.com/magnusjonsson/unitc/internal/units"
)

// New creates a parser for the text of one unit attribute
func New(input string) *Parser {
	l := lexer.New(input)
	return &Parser{
		tokens: l.Tokenize(),
		pos:    0,
		input:  input,
	}
}

// Parse parses input in the process-wide interner
func Parse(input string) (units.Unit, error) {
	return New(input).Parse(units.Default())
}

// Parse parses the whole input as a unit expression:
//
//	product := factor (('*' | '/') factor)*
//	factor  := '1' | identifier | '(' product ')'
//
// Operators associate left to right, so "a / b * c" is (a / b) * c.
// Trailing input is an error.
func (p *Parser) Parse(in *units.Interner) (units.Unit, error) {
	u := p.parseProduct(in)
	if !p.failed() && !p.check(lexer.EOF) {
		tok := p.current()
		p.errorf(tok, "unexpected %s after unit expression", tok.Describe())
	}
	if p.failed() {
		return units.One, p.err
	}
	return u, nil
}

// parseProduct parses: factor (('*' | '/') factor)*
func (p *Parser) parseProduct(in *units.Interner) units.Unit {
	left := p.parseFactor(in)
	for !p.failed() {
		switch p.current().Type {
		case lexer.STAR:
			p.advance()
			left = units.Mul(left, p.parseFactor(in))
		case lexer.SLASH:
			p.advance()
			left = units.Div(left, p.parseFactor(in))
		default:
			return left
		}
	}
	return left
}

// parseFactor parses: '1' | identifier | '(' product ')'
func (p *Parser) parseFactor(in *units.Interner) units.Unit {
	tok := p.current()
	switch tok.Type {
	case lexer.ONE:
		p.advance()
		return units.One
	case lexer.IDENT:
		p.advance()
		return units.Of(in.Intern(tok.Literal))
	case lexer.LPAREN:
		p.advance()
		u := p.parseProduct(in)
		p.expect(lexer.RPAREN, "')'")
		return u
	case lexer.NUMBER:
		p.errorf(tok, "numeric factor %q is not a unit; only 1 is allowed", tok.Literal)
	case lexer.EOF:
		p.errorf(tok, "expected unit, got end of input")
	default:
		p.errorf(tok, "expected unit, got %s", tok.Describe())
	}
	return units.One
}
