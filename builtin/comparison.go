package builtin

import (
	"lip/runtime"
	"lip/value"
)

// registerComparison installs `cmp` and the six relational primitives
// derived from it, plus logical `not`, per spec.md §4.8: "comparison
// primitives <, <=, =, >=, >, != are derived from cmp against zero."
func registerComparison(ctx *runtime.Context) {
	ctx.RegisterFixedArity("cmp", 2, func(args []value.Value) (value.Value, error) {
		return value.Num(float64(value.Cmp(args[0], args[1]))), nil
	})

	relate := func(name string, ok func(c int) bool) {
		ctx.RegisterFixedArity(name, 2, func(args []value.Value) (value.Value, error) {
			return value.Bool(ok(value.Cmp(args[0], args[1]))), nil
		})
	}
	relate("<", func(c int) bool { return c < 0 })
	relate("<=", func(c int) bool { return c <= 0 })
	relate("=", func(c int) bool { return c == 0 })
	relate(">=", func(c int) bool { return c >= 0 })
	relate(">", func(c int) bool { return c > 0 })
	relate("!=", func(c int) bool { return c != 0 })

	ctx.RegisterFixedArity("not", 1, func(args []value.Value) (value.Value, error) {
		return value.Bool(args[0].IsFalsy()), nil
	})
}
