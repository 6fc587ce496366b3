package builtin

import (
	"lip/runtime"
	"lip/value"
	"lip/vm"
)

// registerList installs the core list operations spec.md §4.8 names:
// `list`, `cons`, `head`, `tail`, `length`. `head`/`tail` on the empty
// list is an error, per spec.md.
func registerList(ctx *runtime.Context) {
	ctx.RegisterVariadicAny("list", func(args []value.Value) (value.Value, error) {
		elems := append([]value.Value(nil), args...)
		return value.List_(elems), nil
	})

	ctx.RegisterFixedArity("cons", 2, func(args []value.Value) (value.Value, error) {
		head, tail := args[0], args[1]
		if tail.Kind != value.List {
			return value.NilValue, &vm.Error{Kind: vm.BadArgument, Message: "cons: second argument must be a list"}
		}
		elems := append([]value.Value{head}, tail.AsList()...)
		return value.List_(elems), nil
	})

	ctx.RegisterFixedArity("head", 1, func(args []value.Value) (value.Value, error) {
		elems, err := asNonEmptyList("head", args[0])
		if err != nil {
			return value.NilValue, err
		}
		return elems[0], nil
	})

	ctx.RegisterFixedArity("tail", 1, func(args []value.Value) (value.Value, error) {
		elems, err := asNonEmptyList("tail", args[0])
		if err != nil {
			return value.NilValue, err
		}
		return value.List_(append([]value.Value(nil), elems[1:]...)), nil
	})

	ctx.RegisterFixedArity("length", 1, func(args []value.Value) (value.Value, error) {
		if args[0].Kind != value.List {
			return value.NilValue, &vm.Error{Kind: vm.BadArgument, Message: "length: argument must be a list"}
		}
		return value.Num(float64(len(args[0].AsList()))), nil
	})

	ctx.RegisterVariadicAny("append", func(args []value.Value) (value.Value, error) {
		var elems []value.Value
		for _, a := range args {
			if a.Kind != value.List {
				return value.NilValue, &vm.Error{Kind: vm.BadArgument, Message: "append: every argument must be a list"}
			}
			elems = append(elems, a.AsList()...)
		}
		return value.List_(elems), nil
	})
}

func asNonEmptyList(fnName string, v value.Value) ([]value.Value, error) {
	if v.Kind != value.List {
		return nil, &vm.Error{Kind: vm.BadArgument, Message: fnName + ": argument must be a list"}
	}
	elems := v.AsList()
	if len(elems) == 0 {
		return nil, &vm.Error{Kind: vm.BadArgument, Message: fnName + ": argument must not be empty"}
	}
	return elems, nil
}
