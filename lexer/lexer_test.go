package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lip/token"
)

func scanAll(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanDelimitersAndReaderMacros(t *testing.T) {
	toks := scanAll(t, "('x `(a ,b ,@c))")
	require.Equal(t, []token.Kind{
		token.LPAREN, token.QUOTE, token.SYMBOL,
		token.QUASIQUOTE, token.LPAREN, token.SYMBOL,
		token.UNQUOTE, token.SYMBOL, token.UNQUOTE_SPLICING, token.SYMBOL,
		token.RPAREN, token.RPAREN, token.EOF,
	}, kinds(toks))
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "1 -2 3.14 -0.5 1e10 2.5e-3")
	for _, tok := range toks[:len(toks)-1] {
		require.Equal(t, token.NUMBER, tok.Kind)
		require.IsType(t, float64(0), tok.Literal)
	}
	require.InDelta(t, 1, toks[0].Literal, 0)
	require.InDelta(t, -2, toks[1].Literal, 0)
	require.InDelta(t, 3.14, toks[2].Literal, 1e-9)
	require.InDelta(t, -0.5, toks[3].Literal, 1e-9)
	require.InDelta(t, 1e10, toks[4].Literal, 1)
	require.InDelta(t, 2.5e-3, toks[5].Literal, 1e-9)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hi\nthere"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hi\nthere", toks[0].Literal)
}

func TestScanStringErrors(t *testing.T) {
	l := New(`"unterminated`)
	_, err := l.Next()
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, UnterminatedString, lexErr.Kind)

	l2 := New(`"bad \q escape"`)
	_, err = l2.Next()
	require.Error(t, err)
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, UnknownEscape, lexErr.Kind)
}

func TestScanBadNumber(t *testing.T) {
	l := New("1.2.3")
	_, err := l.Next()
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	require.Equal(t, BadNumber, lexErr.Kind)
}

func TestPeekBuffersAtMostOneToken(t *testing.T) {
	l := New("(+ 1 2)")
	first, err := l.Peek()
	require.NoError(t, err)
	again, err := l.Peek()
	require.NoError(t, err)
	require.Equal(t, first, again)

	consumed, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, first, consumed)
}

func TestLineAndColumnComments(t *testing.T) {
	toks := scanAll(t, "; a comment\n(foo)")
	require.Equal(t, token.LPAREN, toks[0].Kind)
	require.EqualValues(t, 2, toks[0].Range.Start.Line)
}

// TestLexemeRoundTrip is the lexer round-trip property from spec.md §8:
// concatenating the tokens' lexemes with single spaces and re-lexing
// reproduces the same token-kind sequence.
func TestLexemeRoundTrip(t *testing.T) {
	inputs := []string{
		"(+ 1 2 3)",
		"(if (< 2 1) \"a\" \"b\")",
		"'(1 2 3)",
		"`(a ,b ,@c)",
		"(let ((x 10) (y 20)) (* x y))",
	}
	for _, in := range inputs {
		toks := scanAll(t, in)
		var joined string
		for i, tok := range toks {
			if tok.Kind == token.EOF {
				break
			}
			if i > 0 {
				joined += " "
			}
			joined += tok.Lexeme
		}
		reToks := scanAll(t, joined)
		require.Equal(t, kinds(toks), kinds(reToks), "round trip mismatch for %q", in)
	}
}
