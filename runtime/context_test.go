package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lip/value"
	"lip/vm"
)

func TestLoadScriptAndExecute(t *testing.T) {
	ctx := NewContext(nil)
	ctx.RegisterVariadic("+", value.Number, func(args []value.Value) (value.Value, error) {
		sum := 0.0
		for _, a := range args {
			sum += a.Num
		}
		return value.Num(sum), nil
	})

	fn, err := ctx.LoadScript("inline", strings.NewReader("(+ 1 2 3)"))
	require.NoError(t, err)

	m := NewVM(ctx, vm.DefaultConfig)
	result, status, err := m.ExecScript(fn)
	require.NoError(t, err)
	require.Equal(t, vm.OK, status)
	require.Equal(t, value.Num(6), result)
}

func TestDefineValueVisibleToScript(t *testing.T) {
	ctx := NewContext(nil)
	ctx.DefineValue("greeting", value.Str("hi"))

	fn, err := ctx.LoadScript("inline", strings.NewReader("greeting"))
	require.NoError(t, err)

	m := NewVM(ctx, vm.DefaultConfig)
	result, _, err := m.ExecScript(fn)
	require.NoError(t, err)
	require.Equal(t, "hi", result.AsString())
}

func TestRegisterNativeTypeChecksArguments(t *testing.T) {
	ctx := NewContext(nil)
	ctx.RegisterNative("double", func(args []value.Value) (value.Value, error) {
		return value.Num(args[0].Num * 2), nil
	}, []Param{{Name: "n", Required: true, Type: value.Number}})

	fn, err := ctx.LoadScript("inline", strings.NewReader(`(double "x")`))
	require.NoError(t, err)

	m := NewVM(ctx, vm.DefaultConfig)
	_, status, err := m.ExecScript(fn)
	require.Error(t, err)
	require.Equal(t, vm.ErrorStatus, status)
	var rerr *vm.Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, vm.BadArgument, rerr.Kind)
}

func TestUnboundSymbolProducesTraceback(t *testing.T) {
	ctx := NewContext(nil)
	fn, err := ctx.LoadScript("inline", strings.NewReader("(missing-fn 1)"))
	require.NoError(t, err)

	m := NewVM(ctx, vm.DefaultConfig)
	_, status, err := m.ExecScript(fn)
	require.Error(t, err)
	require.Equal(t, vm.ErrorStatus, status)
	require.NotEmpty(t, ctx.Traceback(m))
}

func TestLoadScriptParseError(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ctx.LoadScript("inline", strings.NewReader("("))
	require.Error(t, err)
	var lerr *LipError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, UnterminatedList, lerr.Kind)
}
