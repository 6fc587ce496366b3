package runtime

import (
	"fmt"

	"lip/value"
	"lip/vm"
)

// Param describes one slot of a native function's argument-binding
// contract: required-vs-optional, an expected value.Kind, and a default
// used when the argument is missing and not required. Grounded on
// include/lip/bind.h's required/optional/typed-slot descriptor shape
// (SPEC_FULL.md §10), replacing the original's preprocessor binding DSL
// with a plain descriptor slice a Go caller builds literally.
type Param struct {
	Name     string
	Required bool
	Type     value.Kind
	Default  value.Value
}

// BindArgs validates args against params positionally: each Param beyond
// len(args) must not be Required (its Default fills the slot instead),
// and every bound argument's Kind must match its Param's Type. fnName
// names the native function in error messages (spec.md's BAD_ARGUMENT
// message shape: argument index, expected type, got type).
func BindArgs(fnName string, params []Param, args []value.Value) ([]value.Value, error) {
	if len(args) > len(params) {
		return nil, &vm.Error{Kind: vm.ArityMismatch, Message: fmt.Sprintf("%s expects at most %d arguments, got %d", fnName, len(params), len(args))}
	}
	bound := make([]value.Value, len(params))
	for i, p := range params {
		if i >= len(args) {
			if p.Required {
				return nil, &vm.Error{Kind: vm.ArityMismatch, Message: fmt.Sprintf("%s missing required argument %d (%s)", fnName, i+1, p.Name)}
			}
			bound[i] = p.Default
			continue
		}
		a := args[i]
		if a.Kind != p.Type {
			return nil, &vm.Error{Kind: vm.BadArgument, Message: fmt.Sprintf("%s argument %d: expected %s, got %s", fnName, i+1, p.Type, a.Kind)}
		}
		bound[i] = a
	}
	return bound, nil
}

// VariadicArgs validates args for natives like `+`/`*` that accept any
// number of same-typed arguments: BindArgs is bypassed for these, and
// VariadicArgs only checks that every argument's Kind is want.
func VariadicArgs(fnName string, want value.Kind, args []value.Value) ([]value.Value, error) {
	for i, a := range args {
		if a.Kind != want {
			return nil, &vm.Error{Kind: vm.BadArgument, Message: fmt.Sprintf("%s argument %d: expected %s, got %s", fnName, i+1, want, a.Kind)}
		}
	}
	return args, nil
}
