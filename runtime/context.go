// Package runtime implements the host-facing embedding API spec.md §6
// describes: a Context owning the allocator and the module registry that
// every script's IMP/LDS/DEF resolves against, plus typed native-function
// binding and traceback rendering. Grounded on the module-registry role
// implied by the teacher's NameConstants/OP_GET_GLOBAL pair, generalized
// into a proper symbol table with late-bound lookups per the Open
// Question decision recorded in DESIGN.md.
package runtime

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"lip/arena"
	"lip/ast"
	"lip/bytecode"
	"lip/compiler"
	"lip/lexer"
	"lip/sexpr"
	"lip/token"
	"lip/value"
	"lip/vm"
)

// NativeFunc is a host function bound into the dialect via RegisterNative.
// It receives already-validated, already-defaulted arguments (per the
// Param descriptors it was registered with) and returns a result or an
// error; a non-nil error's message surfaces as a USER_ERROR unless it is
// itself a *vm.Error, which passes through with its own Kind. Either way
// the original error stays reachable through errors.Unwrap/errors.As,
// stack-annotated via github.com/pkg/errors, rather than being discarded.
type NativeFunc func(args []value.Value) (value.Value, error)

// Context is the single-owner environment a host creates once and reuses
// across scripts and VM instances: the allocator, the symbol registry
// every IMP/LDS/DEF resolves against, and the loader pipeline
// (lexer -> sexpr -> ast -> compiler) that turns source text into a
// bytecode.Function (spec.md §4.9, §6).
type Context struct {
	alloc    arena.Allocator
	registry map[string]value.Value
}

// NewContext creates a Context backed by alloc. A nil alloc defaults to
// arena.GoAllocator{}.
func NewContext(alloc arena.Allocator) *Context {
	if alloc == nil {
		alloc = arena.GoAllocator{}
	}
	return &Context{alloc: alloc, registry: make(map[string]value.Value)}
}

// Close releases the Context's resources. There is nothing to release
// under Go's GC beyond dropping references; Close exists so embedding
// code written against a manual-memory contract (spec.md §4.1) has a
// symmetric lifecycle call.
func (c *Context) Close() {
	c.registry = nil
}

// Resolve implements vm.Resolver: a late-bound lookup by name, performed
// fresh on every IMP/LDS (the Open Question decision recorded in
// DESIGN.md — a closure created before a redefining `define` sees the new
// value on its next call).
func (c *Context) Resolve(name string) (value.Value, bool) {
	v, ok := c.registry[name]
	return v, ok
}

// Define implements vm.Resolver: DEF's module-registry write, also used
// directly by DefineValue and RegisterNative.
func (c *Context) Define(name string, v value.Value) {
	c.registry[name] = v
}

// DefineValue binds a plain value into the registry under name, visible
// to any script's IMP/LDS by that name (spec.md §6).
func (c *Context) DefineValue(name string, v value.Value) {
	c.Define(name, v)
}

// RegisterNative binds fn into the registry under name as a native
// closure, wrapped so that calls first bind and type-check args against
// params (spec.md §4.7/§9's typed argument-binding contract) before
// invoking fn.
func (c *Context) RegisterNative(name string, fn NativeFunc, params []Param) {
	native := func(_ *vm.VM, args []value.Value) (value.Value, error) {
		bound, err := BindArgs(name, params, args)
		if err != nil {
			return value.NilValue, err
		}
		result, err := fn(bound)
		if err != nil {
			if _, ok := err.(*vm.Error); ok {
				return value.NilValue, err
			}
			return value.NilValue, &vm.Error{Kind: vm.UserError, Message: err.Error(), Inner: errors.WithStack(err)}
		}
		return result, nil
	}
	c.Define(name, value.Value{Kind: value.Function, Ref: &vm.Closure{IsNative: true, Native: native, NativeName: name}})
}

// RegisterVariadic binds fn into the registry under name as a native
// closure accepting any number of arguments, each required to have kind
// want (spec.md §4.8/§10: `+`/`*` are n-ary over one type rather than
// binding against a fixed Param list).
func (c *Context) RegisterVariadic(name string, want value.Kind, fn func(args []value.Value) (value.Value, error)) {
	native := func(_ *vm.VM, args []value.Value) (value.Value, error) {
		bound, err := VariadicArgs(name, want, args)
		if err != nil {
			return value.NilValue, err
		}
		result, err := fn(bound)
		if err != nil {
			if _, ok := err.(*vm.Error); ok {
				return value.NilValue, err
			}
			return value.NilValue, &vm.Error{Kind: vm.UserError, Message: err.Error(), Inner: errors.WithStack(err)}
		}
		return result, nil
	}
	c.Define(name, value.Value{Kind: value.Function, Ref: &vm.Closure{IsNative: true, Native: native, NativeName: name}})
}

// RegisterVariadicAny binds fn into the registry under name as a native
// closure accepting any number of arguments of any kind: used by `list`,
// which imposes no type restriction on its elements (spec.md §4.8).
func (c *Context) RegisterVariadicAny(name string, fn func(args []value.Value) (value.Value, error)) {
	native := func(_ *vm.VM, args []value.Value) (value.Value, error) {
		result, err := fn(args)
		if err != nil {
			if _, ok := err.(*vm.Error); ok {
				return value.NilValue, err
			}
			return value.NilValue, &vm.Error{Kind: vm.UserError, Message: err.Error(), Inner: errors.WithStack(err)}
		}
		return result, nil
	}
	c.Define(name, value.Value{Kind: value.Function, Ref: &vm.Closure{IsNative: true, Native: native, NativeName: name}})
}

// RegisterFixedArity binds fn into the registry under name as a native
// closure accepting exactly arity arguments of any kind: used by
// primitives like `cmp`/`not`/list operations whose argument types are
// validated internally (they accept more than one value.Kind, or reject
// kinds case by case), rather than against one uniform Param list.
func (c *Context) RegisterFixedArity(name string, arity int, fn func(args []value.Value) (value.Value, error)) {
	native := func(_ *vm.VM, args []value.Value) (value.Value, error) {
		if len(args) != arity {
			return value.NilValue, &vm.Error{Kind: vm.ArityMismatch, Message: fmt.Sprintf("%s expects %d arguments, got %d", name, arity, len(args))}
		}
		result, err := fn(args)
		if err != nil {
			if _, ok := err.(*vm.Error); ok {
				return value.NilValue, err
			}
			return value.NilValue, &vm.Error{Kind: vm.UserError, Message: err.Error(), Inner: errors.WithStack(err)}
		}
		return result, nil
	}
	c.Define(name, value.Value{Kind: value.Function, Ref: &vm.Closure{IsNative: true, Native: native, NativeName: name}})
}

// LoadScript runs r through the full lexer -> sexpr -> ast -> compiler
// pipeline and returns the compiled program as a single root
// bytecode.Function whose body is the source's sequence of top-level
// forms (spec.md §4.2-§4.6).
func (c *Context) LoadScript(name string, r io.Reader) (*bytecode.Function, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lex := lexer.New(string(src))
	p := sexpr.New(lex)
	builder := ast.NewBuilder()

	var forms []*ast.Node
	for {
		expr, err := p.Read()
		if err != nil {
			return nil, wrapErr(err)
		}
		if expr == nil {
			break
		}
		node, err := builder.Build(expr, true)
		if err != nil {
			return nil, wrapErr(err)
		}
		forms = append(forms, node)
	}

	fn, err := compiler.CompileProgram(forms, name)
	if err != nil {
		return nil, wrapErr(err)
	}
	return fn, nil
}

// NewVM creates a VM sized by cfg, wired to resolve against ctx's
// registry (spec.md §6).
func NewVM(ctx *Context, cfg vm.Config) *vm.VM {
	return vm.New(cfg, ctx)
}

// Frame is one entry of a Traceback: spec.md §7's {filename, location,
// function-name} triple, with Native set for a call into a host function.
type Frame struct {
	FunctionName string
	Filename     string
	Loc          token.Range
	Native       bool
}

// Traceback renders m's current call stack through Frame, the host-facing
// shape of vm.TraceFrame (spec.md §6/§7).
func (c *Context) Traceback(m *vm.VM) []Frame {
	vmFrames := m.Traceback()
	frames := make([]Frame, len(vmFrames))
	for i, f := range vmFrames {
		frames[i] = Frame{FunctionName: f.FunctionName, Filename: f.Filename, Loc: f.Loc, Native: f.Native}
	}
	return frames
}
