package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lip/ast"
	"lip/bytecode"
	"lip/compiler"
	"lip/lexer"
	"lip/sexpr"
	"lip/value"
)

// fakeResolver is a minimal in-memory module registry plus a handful of
// native arithmetic/comparison primitives, just enough to exercise the
// VM's CALL/TAIL/CLS/IMP/DEF handling without depending on the builtin
// package.
type fakeResolver struct {
	table map[string]value.Value
}

func newFakeResolver() *fakeResolver {
	r := &fakeResolver{table: make(map[string]value.Value)}
	native := func(name string, fn NativeFunc) {
		r.table[name] = value.Value{Kind: value.Function, Ref: &Closure{IsNative: true, Native: fn, NativeName: name}}
	}
	native("+", func(_ *VM, args []value.Value) (value.Value, error) {
		sum := 0.0
		for _, a := range args {
			sum += a.Num
		}
		return value.Num(sum), nil
	})
	native("-", func(_ *VM, args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			return value.Num(-args[0].Num), nil
		}
		return value.Num(args[0].Num - args[1].Num), nil
	})
	native("*", func(_ *VM, args []value.Value) (value.Value, error) {
		prod := 1.0
		for _, a := range args {
			prod *= a.Num
		}
		return value.Num(prod), nil
	})
	native("<", func(_ *VM, args []value.Value) (value.Value, error) {
		return value.Bool(value.Cmp(args[0], args[1]) < 0), nil
	})
	native("=", func(_ *VM, args []value.Value) (value.Value, error) {
		return value.Bool(value.Equal(args[0], args[1])), nil
	})
	return r
}

func (r *fakeResolver) Resolve(name string) (value.Value, bool) {
	v, ok := r.table[name]
	return v, ok
}

func (r *fakeResolver) Define(name string, v value.Value) {
	r.table[name] = v
}

func compileSrc(t *testing.T, src string) *bytecode.Function {
	t.Helper()
	p := sexpr.New(lexer.New(src))
	var forms []*ast.Node
	for {
		e, err := p.Read()
		require.NoError(t, err)
		if e == nil {
			break
		}
		n, err := ast.Build(e, true)
		require.NoError(t, err)
		forms = append(forms, n)
	}
	fn, err := compiler.CompileProgram(forms, "test.lip")
	require.NoError(t, err)
	return fn
}

func runSrc(t *testing.T, src string) value.Value {
	t.Helper()
	fn := compileSrc(t, src)
	machine := New(DefaultConfig, newFakeResolver())
	result, err := machine.Execute(fn)
	require.NoError(t, err)
	return result
}

func TestExecuteArithmetic(t *testing.T) {
	v := runSrc(t, "(+ 1 2 3)")
	require.Equal(t, value.Num(6), v)
}

func TestExecuteIf(t *testing.T) {
	v := runSrc(t, `(if (< 2 1) "a" "b")`)
	require.Equal(t, "b", v.AsString())
}

func TestExecuteLet(t *testing.T) {
	v := runSrc(t, "(let ((x 10) (y 20)) (* x y))")
	require.Equal(t, value.Num(200), v)
}

func TestExecuteLetrecFactorial(t *testing.T) {
	v := runSrc(t, `(letrec ((fact (lambda (n) (if (< n 1) 1 (* n (fact (- n 1))))))) (fact 5))`)
	require.Equal(t, value.Num(120), v)
}

func TestExecuteClosureCapture(t *testing.T) {
	v := runSrc(t, "(((lambda (x) (lambda (y) (+ x y))) 3) 4)")
	require.Equal(t, value.Num(7), v)
}

func TestExecuteDefineThenUse(t *testing.T) {
	fn := compileSrc(t, "(define x 5) (+ x 1)")
	machine := New(DefaultConfig, newFakeResolver())
	v, err := machine.Execute(fn)
	require.NoError(t, err)
	require.Equal(t, value.Num(6), v)
}

func TestExecuteUnboundSymbolError(t *testing.T) {
	fn := compileSrc(t, "(foo 1 2)")
	machine := New(DefaultConfig, newFakeResolver())
	_, err := machine.Execute(fn)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, UnboundSymbol, rerr.Kind)
	require.Contains(t, rerr.Message, "foo")
}

// TestExecuteLetrecFactoryEscapesPerInvocation guards against a letrec
// binding resolving through shared storage across separate invocations
// of the lambda that creates it: each call to make-adder must get its
// own independent helper, even though both calls compile from the same
// AST node.
func TestExecuteLetrecFactoryEscapesPerInvocation(t *testing.T) {
	src := `(define make-adder (lambda (n) (letrec ((helper (lambda (x) (if (= x 0) n (+ 1 (helper (- x 1))))))) helper)))
	        (define add1 (make-adder 1))
	        (define add100 (make-adder 100))
	        (add1 3)`
	fn := compileSrc(t, src)
	machine := New(DefaultConfig, newFakeResolver())
	result, err := machine.Execute(fn)
	require.NoError(t, err)
	require.Equal(t, value.Num(4), result)
}

func TestExecuteTailCallDoesNotGrowCallStack(t *testing.T) {
	src := `(letrec ((loop (lambda (n acc) (if (< n 1) acc (loop (- n 1) (+ acc 1))))))
	          (loop 10000 0))`
	fn := compileSrc(t, src)
	machine := New(Config{OperandCap: 256, CallCap: 8, EnvCap: 4096}, newFakeResolver())
	result, err := machine.Execute(fn)
	require.NoError(t, err)
	require.Equal(t, value.Num(10000), result)
}
