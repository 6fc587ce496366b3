package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCmpShorterListIsLess(t *testing.T) {
	a := List_([]Value{Num(1), Num(2)})
	b := List_([]Value{Num(1), Num(2), Num(3)})
	require.Negative(t, Cmp(a, b))
}

func TestCmpTagOrdering(t *testing.T) {
	require.NotZero(t, Cmp(NilValue, Num(0)))
}

func TestEqualByContent(t *testing.T) {
	require.True(t, Equal(Str("abc"), Str("abc")))
	require.False(t, Equal(Str("abc"), Sym("abc")))
	require.True(t, Equal(List_([]Value{Num(1)}), List_([]Value{Num(1)})))
}

func TestIsFalsy(t *testing.T) {
	require.True(t, NilValue.IsFalsy())
	require.True(t, FalseValue.IsFalsy())
	require.False(t, TrueValue.IsFalsy())
	require.False(t, Num(0).IsFalsy())
}
