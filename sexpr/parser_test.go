package sexpr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lip/lexer"
)

func parseOne(t *testing.T, src string) *SExpr {
	t.Helper()
	p := New(lexer.New(src))
	expr, err := p.Read()
	require.NoError(t, err)
	require.NotNil(t, expr)
	return expr
}

func symName(t *testing.T, n *SExpr) string {
	t.Helper()
	require.Equal(t, SymbolLexeme, n.Kind)
	return n.Text
}

// TestQuoteWrapping is the parser idempotence property from spec.md §8:
// read("'x") = (quote x).
func TestQuoteWrapping(t *testing.T) {
	expr := parseOne(t, "'x")
	require.Equal(t, ListExpr, expr.Kind)
	require.Len(t, expr.Elements, 2)
	require.Equal(t, "quote", symName(t, expr.Elements[0]))
	require.Equal(t, "x", symName(t, expr.Elements[1]))
}

// TestQuasiquoteUnquoteWrapping: read("`(a ,b)") = (quasiquote (a (unquote b))).
func TestQuasiquoteUnquoteWrapping(t *testing.T) {
	expr := parseOne(t, "`(a ,b)")
	require.Equal(t, "quasiquote", symName(t, expr.Elements[0]))

	inner := expr.Elements[1]
	require.Equal(t, ListExpr, inner.Kind)
	require.Len(t, inner.Elements, 2)
	require.Equal(t, "a", symName(t, inner.Elements[0]))

	unquoted := inner.Elements[1]
	require.Equal(t, "unquote", symName(t, unquoted.Elements[0]))
	require.Equal(t, "b", symName(t, unquoted.Elements[1]))
}

func TestUnexpectedClosingParen(t *testing.T) {
	p := New(lexer.New(")"))
	_, err := p.Read()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, UnexpectedToken, perr.Kind)
}

// TestUnterminatedListAtEOF: "(" at EOF is UNTERMINATED_LIST at the opening
// paren's location, per spec.md §8.
func TestUnterminatedListAtEOF(t *testing.T) {
	p := New(lexer.New("("))
	_, err := p.Read()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, UnterminatedList, perr.Kind)
	require.EqualValues(t, 1, perr.Loc.Line)
}

func TestUnexpectedTokenAfterReaderMacroAtEOF(t *testing.T) {
	p := New(lexer.New("'"))
	_, err := p.Read()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, UnexpectedToken, perr.Kind)
}

func TestNestedListsAndMultipleTopLevelReads(t *testing.T) {
	p := New(lexer.New("(+ 1 (* 2 3)) (- 4 5)"))
	first, err := p.Read()
	require.NoError(t, err)
	require.Equal(t, ListExpr, first.Kind)
	require.Len(t, first.Elements, 3)

	second, err := p.Read()
	require.NoError(t, err)
	require.Equal(t, "-", symName(t, second.Elements[0]))

	third, err := p.Read()
	require.NoError(t, err)
	require.Nil(t, third)
}
