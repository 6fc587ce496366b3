package vm

import (
	"lip/bytecode"
	"lip/token"
	"lip/value"
)

// Closure is spec.md §3's runtime Closure: a function paired with its
// captured environment, or a native Go function standing in for the
// "is-native flag" variant of the same struct.
type Closure struct {
	Fn       *bytecode.Function
	Captured []value.Value

	Native     NativeFunc
	IsNative   bool
	NativeName string
}

// NativeFunc is a host function bound into the dialect via
// runtime.Context.RegisterNative (spec.md §4.9/§6).
type NativeFunc func(vm *VM, args []value.Value) (value.Value, error)

func (cl *Closure) Arity() int {
	if cl.IsNative {
		return -1 // native arity is checked by the typed argument binder, not here
	}
	return cl.Fn.Arity
}

func (cl *Closure) Variadic() bool {
	return !cl.IsNative && cl.Fn.Variadic
}

// Frame is spec.md §3's stack frame: {closure-ref (nil for the root
// frame), program counter, environment base, operand-stack base, plus
// optional native-site metadata}.
type Frame struct {
	Closure     *Closure
	Fn          *bytecode.Function // the function actually executing (== Closure.Fn except for the root frame)
	PC          int
	EnvBase     int
	OperandBase int

	// Native call-site metadata, populated only for a frame representing
	// a call into a native function (spec.md's Traceback rendering).
	NativeSite bool
	SourceName string
	CallLoc    token.Range
}
