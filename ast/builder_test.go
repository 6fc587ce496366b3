package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lip/lexer"
	"lip/sexpr"
	"lip/value"
)

func parseSExpr(t *testing.T, src string) *sexpr.SExpr {
	t.Helper()
	p := sexpr.New(lexer.New(src))
	e, err := p.Read()
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func buildTop(t *testing.T, src string) *Node {
	t.Helper()
	n, err := Build(parseSExpr(t, src), true)
	require.NoError(t, err)
	return n
}

func TestBuildIfTwoOperandsImpliesNilElse(t *testing.T) {
	n := buildTop(t, "(if true 1)")
	require.Equal(t, If, n.Kind)
	require.Equal(t, Literal, n.Else.Kind)
	require.Equal(t, value.Nil, n.Else.Value.Kind)
}

func TestBuildIfBadArity(t *testing.T) {
	_, err := Build(parseSExpr(t, "(if true)"), true)
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, BadSpecialForm, aerr.Kind)
}

func TestBuildLambdaVariadic(t *testing.T) {
	n := buildTop(t, "(lambda xs (length xs))")
	require.Equal(t, Lambda, n.Kind)
	require.True(t, n.Variadic)
	require.Len(t, n.Params, 1)
	require.Equal(t, "xs", n.Params[0].Lexeme)
}

func TestBuildLambdaFixedArity(t *testing.T) {
	n := buildTop(t, "(lambda (x y) (+ x y))")
	require.False(t, n.Variadic)
	require.Len(t, n.Params, 2)
}

func TestDefineOnlyLegalAtTopLevel(t *testing.T) {
	_, err := Build(parseSExpr(t, "(+ 1 (define x 2))"), false)
	require.Error(t, err)

	n, err := Build(parseSExpr(t, "(define x 2)"), true)
	require.NoError(t, err)
	require.Equal(t, Define, n.Kind)
	require.Equal(t, "x", n.Name.Lexeme)
}

func TestLetBindingsMustBePairs(t *testing.T) {
	_, err := Build(parseSExpr(t, "(let ((x)) x)"), true)
	require.Error(t, err)
}

func TestQuoteMaterializesValueTree(t *testing.T) {
	n := buildTop(t, "(quote (a 1 \"s\"))")
	require.Equal(t, Literal, n.Kind)
	elems := n.Value.AsList()
	require.Len(t, elems, 3)
	require.Equal(t, value.Symbol, elems[0].Kind)
	require.Equal(t, value.Number, elems[1].Kind)
	require.Equal(t, value.String, elems[2].Kind)
}

func TestQuasiquoteUnquoteDesugarsToIdentifier(t *testing.T) {
	n := buildTop(t, "`(a ,b)")
	require.Equal(t, Application, n.Kind)
	require.Equal(t, "append", n.Callee.Name.Lexeme)
	require.Len(t, n.Args, 2)
	// second segment is (list b) where b desugars straight to the
	// identifier, not wrapped in a literal.
	require.Equal(t, Application, n.Args[1].Kind)
	require.Equal(t, Identifier, n.Args[1].Args[0].Kind)
	require.Equal(t, "b", n.Args[1].Args[0].Name.Lexeme)
}

func TestQuasiquoteUnquoteSplicing(t *testing.T) {
	n := buildTop(t, "`(1 ,@xs 2)")
	require.Equal(t, Application, n.Kind)
	require.Equal(t, "append", n.Callee.Name.Lexeme)
	require.Len(t, n.Args, 3)
	// the splice segment is the bare identifier `xs`, not wrapped in (list ..)
	require.Equal(t, Identifier, n.Args[1].Kind)
	require.Equal(t, "xs", n.Args[1].Name.Lexeme)
}
