package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenDateTime
	tokenGeometry
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	ts   time.Time
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && l.input[l.pos] == ' ' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokenLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	case c == '\'':
		return l.lexString(start)
	case c == '-' || unicode.IsDigit(rune(c)):
		return l.lexNumberOrDateTime(start)
	case isIdentStart(c):
		return l.lexIdent(start)
	default:
		return token{}, &SyntaxError{Pos: start, Message: fmt.Sprintf("unexpected character %q", c)}
	}
}

func (l *lexer) lexString(start int) (token, error) {
	var sb strings.Builder
	l.pos++ // opening quote
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\'' {
			// doubled quote is an escaped quote
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				sb.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return token{kind: tokenString, text: sb.String(), pos: start}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, &SyntaxError{Pos: start, Message: "unterminated string literal"}
}

func (l *lexer) lexNumberOrDateTime(start int) (token, error) {
	end := l.pos
	for end < len(l.input) && isLiteralChar(l.input[end]) {
		end++
	}
	text := l.input[l.pos:end]

	// RFC3339 timestamps are bare words in the grammar, e.g.
	// phenomenonTime ge 2024-01-01T00:00:00Z
	if ts, err := time.Parse(time.RFC3339, text); err == nil {
		l.pos = end
		return token{kind: tokenDateTime, text: text, ts: ts, pos: start}, nil
	}
	if ts, err := time.Parse("2006-01-02", text); err == nil {
		l.pos = end
		return token{kind: tokenDateTime, text: text, ts: ts, pos: start}, nil
	}

	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &SyntaxError{Pos: start, Message: fmt.Sprintf("invalid number %q", text)}
	}
	l.pos = end
	return token{kind: tokenNumber, text: text, num: n, pos: start}, nil
}

func (l *lexer) lexIdent(start int) (token, error) {
	end := l.pos
	for end < len(l.input) && isIdentChar(l.input[end]) {
		end++
	}
	text := l.input[l.pos:end]
	l.pos = end

	// geography'POINT(11.1 57.7)' is a typed literal carrying WKT
	if strings.EqualFold(text, "geography") || strings.EqualFold(text, "geometry") {
		if l.pos < len(l.input) && l.input[l.pos] == '\'' {
			t, err := l.lexString(l.pos)
			if err != nil {
				return token{}, err
			}
			return token{kind: tokenGeometry, text: t.text, pos: start}, nil
		}
	}

	return token{kind: tokenIdent, text: text, pos: start}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '@' || unicode.IsLetter(rune(c))
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c == '/' || c == '.' || unicode.IsDigit(rune(c))
}

func isLiteralChar(c byte) bool {
	return unicode.IsDigit(rune(c)) || c == '.' || c == '-' || c == '+' || c == ':' ||
		c == 'T' || c == 'Z' || c == 'e' || c == 'E'
}
