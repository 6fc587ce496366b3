// Package builtin implements the primitive functions spec.md §4.8 lists:
// arithmetic, a single general comparator plus the six derived relational
// operators, logical not, and the core list operations. Each is
// registered into a runtime.Context as a native closure (arithmetic n-ary
// via Context.RegisterVariadic, `list` and `append` via Context.
// RegisterVariadicAny, the rest via Context.RegisterFixedArity). Grounded on
// compiler/ast_compiler.go's binary-opcode set (OP_ADD, OP_LESS,
// OP_EQUALITY, ...), re-expressed as Go functions over value.Value.
package builtin

import (
	"fmt"

	"lip/runtime"
	"lip/value"
	"lip/vm"
)

// Register installs every primitive from spec.md §4.8 into ctx.
func Register(ctx *runtime.Context) {
	registerArithmetic(ctx)
	registerComparison(ctx)
	registerList(ctx)
}

func registerArithmetic(ctx *runtime.Context) {
	ctx.RegisterVariadic("+", value.Number, func(args []value.Value) (value.Value, error) {
		sum := 0.0
		for _, a := range args {
			sum += a.Num
		}
		return value.Num(sum), nil
	})

	ctx.RegisterVariadic("*", value.Number, func(args []value.Value) (value.Value, error) {
		prod := 1.0
		for _, a := range args {
			prod *= a.Num
		}
		return value.Num(prod), nil
	})

	ctx.RegisterVariadic("-", value.Number, func(args []value.Value) (value.Value, error) {
		switch len(args) {
		case 1:
			return value.Num(-args[0].Num), nil
		case 2:
			return value.Num(args[0].Num - args[1].Num), nil
		default:
			return value.NilValue, &vm.Error{Kind: vm.ArityMismatch, Message: fmt.Sprintf("- expects 1 or 2 arguments, got %d", len(args))}
		}
	})

	// Division by zero yields the IEEE-754 result (±Inf or NaN), no trap
	// (spec.md §9 Open Question, decided in DESIGN.md).
	ctx.RegisterVariadic("/", value.Number, func(args []value.Value) (value.Value, error) {
		switch len(args) {
		case 1:
			return value.Num(1 / args[0].Num), nil
		case 2:
			return value.Num(args[0].Num / args[1].Num), nil
		default:
			return value.NilValue, &vm.Error{Kind: vm.ArityMismatch, Message: fmt.Sprintf("/ expects 1 or 2 arguments, got %d", len(args))}
		}
	})
}
