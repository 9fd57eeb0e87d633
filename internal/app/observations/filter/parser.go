package filter

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed filter text. It is a distinct failure mode
// from UnsupportedFunctionError so callers can map them to different
// machine readable error codes.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

// UnsupportedFunctionError reports a function name that the grammar does
// not recognize. It is never silently ignored.
type UnsupportedFunctionError struct {
	Name string
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("unsupported filter function [%s]", e.Name)
}

// arity per supported function; -1 means variadic (at least two args)
var supportedFunctions = map[string]int{
	"contains":       2,
	"startswith":     2,
	"endswith":       2,
	"length":         1,
	"tolower":        1,
	"toupper":        1,
	"trim":           1,
	"substring":      2,
	"indexof":        2,
	"concat":         -1,
	"round":          1,
	"floor":          1,
	"ceiling":        1,
	"geo.distance":   2,
	"geo.intersects": 2,
	"geo.length":     1,
	"geo.within":     2,
	"year":           1,
	"month":          1,
	"day":            1,
	"hour":           1,
	"minute":         1,
	"second":         1,
}

// Parse compiles filter text into an expression tree. Precedence is
// not > and > or, with parentheses overriding.
func Parse(input string) (Expr, error) {
	p := &parser{lex: &lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokenEOF {
		return nil, &SyntaxError{Pos: p.tok.pos, Message: fmt.Sprintf("unexpected token %q", p.tok.text)}
	}

	return expr, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.tok.kind == tokenIdent && strings.EqualFold(p.tok.text, "or") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: OpOr, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.tok.kind == tokenIdent && strings.EqualFold(p.tok.text, "and") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: OpAnd, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokenIdent && strings.EqualFold(p.tok.text, "not") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &LogicalExpr{Op: OpNot, Right: operand}, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokenIdent {
		return left, nil
	}

	op := ComparisonOp(strings.ToLower(p.tok.text))
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
	default:
		return left, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	return &ComparisonExpr{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokenRParen {
			return nil, &SyntaxError{Pos: p.tok.pos, Message: "expected ')'"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil

	case tokenString:
		lit := &LiteralExpr{Kind: LiteralString, String: p.tok.text}
		return lit, p.advance()

	case tokenNumber:
		lit := &LiteralExpr{Kind: LiteralNumber, Number: p.tok.num}
		return lit, p.advance()

	case tokenDateTime:
		lit := &LiteralExpr{Kind: LiteralDateTime, Time: p.tok.ts, String: p.tok.text}
		return lit, p.advance()

	case tokenGeometry:
		lit := &LiteralExpr{Kind: LiteralGeometry, Geometry: p.tok.text}
		return lit, p.advance()

	case tokenIdent:
		return p.parseIdent()

	case tokenEOF:
		return nil, &SyntaxError{Pos: p.tok.pos, Message: "unexpected end of filter"}

	default:
		return nil, &SyntaxError{Pos: p.tok.pos, Message: fmt.Sprintf("unexpected token %q", p.tok.text)}
	}
}

func (p *parser) parseIdent() (Expr, error) {
	name := p.tok.text
	pos := p.tok.pos

	switch strings.ToLower(name) {
	case "true":
		return &LiteralExpr{Kind: LiteralBool, Bool: true}, p.advance()
	case "false":
		return &LiteralExpr{Kind: LiteralBool, Bool: false}, p.advance()
	case "null":
		return &LiteralExpr{Kind: LiteralNull}, p.advance()
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.kind != tokenLParen {
		return &PropertyExpr{Path: strings.Split(name, "/")}, nil
	}

	// name(args...) is a function call. Names containing a path separator
	// can never be functions.
	if strings.Contains(name, "/") {
		return nil, &SyntaxError{Pos: pos, Message: fmt.Sprintf("property %q cannot be called as a function", name)}
	}

	fn := strings.ToLower(name)
	arity, ok := supportedFunctions[fn]
	if !ok {
		return nil, &UnsupportedFunctionError{Name: name}
	}

	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}

	args := make([]Expr, 0, 2)
	if p.tok.kind != tokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind != tokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if p.tok.kind != tokenRParen {
		return nil, &SyntaxError{Pos: p.tok.pos, Message: "expected ')' after function arguments"}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if arity >= 0 && len(args) != arity {
		return nil, &SyntaxError{Pos: pos, Message: fmt.Sprintf("%s expects %d argument(s), got %d", fn, arity, len(args))}
	}
	if arity < 0 && len(args) < 2 {
		return nil, &SyntaxError{Pos: pos, Message: fmt.Sprintf("%s expects at least 2 arguments", fn)}
	}

	return &CallExpr{Name: fn, Args: args}, nil
}
