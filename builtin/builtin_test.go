package builtin

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lip/runtime"
	"lip/value"
	"lip/vm"
)

func eval(t *testing.T, src string) value.Value {
	t.Helper()
	ctx := runtime.NewContext(nil)
	Register(ctx)
	fn, err := ctx.LoadScript("inline", strings.NewReader(src))
	require.NoError(t, err)
	m := runtime.NewVM(ctx, vm.DefaultConfig)
	result, status, err := m.ExecScript(fn)
	require.NoError(t, err)
	require.Equal(t, vm.OK, status)
	return result
}

func TestArithmeticPrimitives(t *testing.T) {
	require.Equal(t, value.Num(6), eval(t, "(+ 1 2 3)"))
	require.Equal(t, value.Num(24), eval(t, "(* 2 3 4)"))
	require.Equal(t, value.Num(-5), eval(t, "(- 5)"))
	require.Equal(t, value.Num(2), eval(t, "(- 5 3)"))
	require.Equal(t, value.Num(0.5), eval(t, "(/ 1 2)"))
}

func TestDivisionByZeroYieldsIEEEResult(t *testing.T) {
	v := eval(t, "(/ 1 0)")
	require.True(t, math.IsInf(v.Num, 1))
}

func TestComparisonPrimitives(t *testing.T) {
	require.True(t, eval(t, "(< 1 2)").IsTrue())
	require.False(t, eval(t, "(< 2 1)").IsTrue())
	require.True(t, eval(t, "(= 2 2)").IsTrue())
	require.True(t, eval(t, `(not nil)`).IsTrue())
	require.True(t, eval(t, `(not false)`).IsTrue())
	require.False(t, eval(t, `(not 0)`).IsTrue())
}

func TestCmpShorterListIsLess(t *testing.T) {
	v := eval(t, "(cmp (list 1 2) (list 1 2 3))")
	require.Less(t, v.Num, 0.0)
}

func TestListOperations(t *testing.T) {
	require.Equal(t, value.Num(4), eval(t, "(length (list 1 2 3 4))"))
	require.Equal(t, value.Num(1), eval(t, "(head (list 1 2 3))"))
	require.Equal(t, value.Num(2), eval(t, "(head (tail (list 1 2 3)))"))
	require.Equal(t, value.Num(1), eval(t, "(head (cons 1 (list 2 3)))"))
}

func TestHeadOnEmptyListIsError(t *testing.T) {
	ctx := runtime.NewContext(nil)
	Register(ctx)
	fn, err := ctx.LoadScript("inline", strings.NewReader("(head (list))"))
	require.NoError(t, err)
	m := runtime.NewVM(ctx, vm.DefaultConfig)
	_, status, err := m.ExecScript(fn)
	require.Error(t, err)
	require.Equal(t, vm.ErrorStatus, status)
}
