package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseComparison(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("result gt 20")
	is.NoErr(err)

	cmp, ok := expr.(*ComparisonExpr)
	is.True(ok)
	is.Equal(cmp.Op, OpGt)

	prop, ok := cmp.Left.(*PropertyExpr)
	is.True(ok)
	is.Equal(prop.Path, []string{"result"})

	lit, ok := cmp.Right.(*LiteralExpr)
	is.True(ok)
	is.Equal(lit.Kind, LiteralNumber)
	is.Equal(lit.Number, 20.0)
}

func TestNotBindsTighterThanAnd(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("not result gt 20 and name eq 'x'")
	is.NoErr(err)

	// (not (result gt 20)) and (name eq 'x')
	and, ok := expr.(*LogicalExpr)
	is.True(ok)
	is.Equal(and.Op, OpAnd)

	not, ok := and.Left.(*LogicalExpr)
	is.True(ok)
	is.Equal(not.Op, OpNot)
}

func TestAndBindsTighterThanOr(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("a eq 1 or b eq 2 and c eq 3")
	is.NoErr(err)

	// (a eq 1) or ((b eq 2) and (c eq 3))
	or, ok := expr.(*LogicalExpr)
	is.True(ok)
	is.Equal(or.Op, OpOr)

	and, ok := or.Right.(*LogicalExpr)
	is.True(ok)
	is.Equal(and.Op, OpAnd)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("(a eq 1 or b eq 2) and c eq 3")
	is.NoErr(err)

	and, ok := expr.(*LogicalExpr)
	is.True(ok)
	is.Equal(and.Op, OpAnd)

	or, ok := and.Left.(*LogicalExpr)
	is.True(ok)
	is.Equal(or.Op, OpOr)
}

func TestParseFunctionCall(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("contains(name,'Weather') and result gt 20")
	is.NoErr(err)

	and, ok := expr.(*LogicalExpr)
	is.True(ok)

	call, ok := and.Left.(*CallExpr)
	is.True(ok)
	is.Equal(call.Name, "contains")
	is.Equal(len(call.Args), 2)
}

func TestParseDateTimeLiteral(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("phenomenonTime ge 2026-01-01T00:00:00Z")
	is.NoErr(err)

	cmp := expr.(*ComparisonExpr)
	lit := cmp.Right.(*LiteralExpr)
	is.Equal(lit.Kind, LiteralDateTime)
	is.Equal(lit.Time, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestParseGeographyLiteral(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("geo.distance(FeatureOfInterest/feature, geography'POINT(17.31 62.39)') lt 100")
	is.NoErr(err)

	cmp := expr.(*ComparisonExpr)
	call := cmp.Left.(*CallExpr)
	is.Equal(call.Name, "geo.distance")

	lit := call.Args[1].(*LiteralExpr)
	is.Equal(lit.Kind, LiteralGeometry)
	is.Equal(lit.Geometry, "POINT(17.31 62.39)")
}

func TestDoubledQuoteEscape(t *testing.T) {
	is := is.New(t)

	expr, err := Parse("name eq 'O''Brien'")
	is.NoErr(err)

	lit := expr.(*ComparisonExpr).Right.(*LiteralExpr)
	is.Equal(lit.String, "O'Brien")
}

func TestUnsupportedFunctionIsDistinctFromSyntaxError(t *testing.T) {
	is := is.New(t)

	_, err := Parse("frobnicate(name)")

	var fnErr *UnsupportedFunctionError
	is.True(errors.As(err, &fnErr))
	is.Equal(fnErr.Name, "frobnicate")

	var syntaxErr *SyntaxError
	is.True(!errors.As(err, &syntaxErr))
}

func TestMalformedFilterIsSyntaxError(t *testing.T) {
	for _, input := range []string{
		"result gt",
		"(name eq 'x'",
		"and result gt 20",
		"contains(name)",
		"name eq 'unterminated",
	} {
		_, err := Parse(input)

		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Errorf("expected syntax error for %q, got %v", input, err)
		}
	}
}

func TestTrailingTokensRejected(t *testing.T) {
	is := is.New(t)

	_, err := Parse("result gt 20 result")

	var syntaxErr *SyntaxError
	is.True(errors.As(err, &syntaxErr))
}

func TestWrongArityRejected(t *testing.T) {
	is := is.New(t)

	_, err := Parse("contains(name, 'a', 'b')")

	var syntaxErr *SyntaxError
	is.True(errors.As(err, &syntaxErr))
}
