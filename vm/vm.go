// Package vm implements the register-less stack virtual machine that
// executes compiled bytecode.Function values, per spec.md §4.7. Grounded
// on the teacher's VM package shape (a fetch-decode-dispatch loop over a
// flat instruction stream) adapted to this dialect's fixed three-stack
// memory model, closures, and native call frames.
package vm

import (
	"lip/bytecode"
	"lip/token"
	"lip/value"
)

// Resolver is the module registry a VM consults for IMP/LDS lookups and
// DEF writes. runtime.Context implements this; kept as an interface here
// so this package never imports runtime (which imports vm).
type Resolver interface {
	Resolve(name string) (value.Value, bool)
	Define(name string, v value.Value)
}

// Hook is the debugger suspend point spec.md §5 describes: invoked
// between every instruction. Returning a non-nil error aborts execution
// with status ABORTED.
type Hook interface {
	Step(vm *VM) error
}

// Config sizes the VM's three stacks: the single config-driven memory
// block spec.md §3 calls for, rendered here as three separately capped
// Go slices rather than one raw byte buffer (DESIGN NOTES §9 — a
// struct-of-arrays stands in for manual offset arithmetic throughout
// this module).
type Config struct {
	OperandCap int
	CallCap    int
	EnvCap     int
}

// DefaultConfig mirrors modest defaults a REPL session would want.
var DefaultConfig = Config{OperandCap: 4096, CallCap: 512, EnvCap: 16384}

// VM is the stack machine. It owns no heap beyond the value payloads
// it's handed or constructs (closures, lists) — everything else lives in
// the three pre-sized stacks below.
type VM struct {
	operand    []value.Value
	operandTop int

	frames   []Frame
	frameTop int

	env    []value.Value
	envTop int

	resolver Resolver
	hook     Hook

	lastStatus Status
}

// New allocates a VM sized by cfg, resolving IMP/LDS/DEF against resolver.
func New(cfg Config, resolver Resolver) *VM {
	return &VM{
		operand:  make([]value.Value, cfg.OperandCap),
		frames:   make([]Frame, cfg.CallCap),
		env:      make([]value.Value, cfg.EnvCap),
		resolver: resolver,
	}
}

// SetHook installs (or, with nil, removes) the debugger hook.
func (vm *VM) SetHook(h Hook) {
	vm.hook = h
}

// Status reports the outcome of the most recently completed Execute call.
func (vm *VM) Status() Status {
	return vm.lastStatus
}

func (vm *VM) pushOperand(v value.Value) error {
	if vm.operandTop >= len(vm.operand) {
		return &Error{Kind: StackOverflow, Message: "operand stack exhausted"}
	}
	vm.operand[vm.operandTop] = v
	vm.operandTop++
	return nil
}

func (vm *VM) popOperand() value.Value {
	vm.operandTop--
	v := vm.operand[vm.operandTop]
	vm.operand[vm.operandTop] = value.NilValue
	return v
}

// Execute runs fn as the root frame (closure-ref nil, per spec.md §3)
// until it returns, and reports the final value.
func (vm *VM) Execute(fn *bytecode.Function) (value.Value, error) {
	vm.frameTop = 0
	vm.envTop = 0
	vm.operandTop = 0
	vm.lastStatus = OK

	if fn.EnvSize > len(vm.env) {
		return value.NilValue, vm.fail(&Error{Kind: StackOverflow, Message: "environment stack too small for program"})
	}
	vm.frames[0] = Frame{Closure: nil, Fn: fn, PC: 0, EnvBase: 0, OperandBase: 0}
	vm.frameTop = 1
	vm.envTop = fn.EnvSize

	result, err := vm.run()
	if err != nil {
		return value.NilValue, vm.fail(vm.annotate(err))
	}
	return result, nil
}

// ExecScript runs fn and reports its result value together with the run's
// terminal Status, per the embedding API's exec_script contract
// (spec.md §4.9/§6): on ErrorStatus or AbortedStatus, err is non-nil and
// carries a populated Traceback.
func (vm *VM) ExecScript(fn *bytecode.Function) (value.Value, Status, error) {
	v, err := vm.Execute(fn)
	return v, vm.lastStatus, err
}

func (vm *VM) fail(err error) error {
	vm.lastStatus = ErrorStatus
	if rerr, ok := err.(*Error); ok && rerr.Kind == Aborted {
		vm.lastStatus = AbortedStatus
	}
	return err
}

func (vm *VM) run() (value.Value, error) {
	for {
		if vm.hook != nil {
			if err := vm.hook.Step(vm); err != nil {
				return value.NilValue, &Error{Kind: Aborted, Message: err.Error()}
			}
		}

		frame := &vm.frames[vm.frameTop-1]
		if frame.PC >= len(frame.Fn.Instructions) {
			return value.NilValue, runtimeErr(BadType, token.Range{}, "fell off the end of %s without RET", frame.Fn.DebugName)
		}
		instr := frame.Fn.Instructions[frame.PC]
		loc := frame.Fn.Locations[frame.PC]
		frame.PC++

		op := instr.Opcode()
		operand := instr.Operand()

		switch op {
		case bytecode.NOP:
		case bytecode.POP:
			for i := int32(0); i < operand; i++ {
				vm.popOperand()
			}
		case bytecode.LDC:
			if err := vm.pushOperand(frame.Fn.Constants[operand]); err != nil {
				return value.NilValue, err
			}
		case bytecode.LDL:
			if err := vm.pushOperand(vm.env[frame.EnvBase+int(operand)]); err != nil {
				return value.NilValue, err
			}
		case bytecode.SET:
			vm.env[frame.EnvBase+int(operand)] = vm.popOperand()
		case bytecode.LDI:
			if err := vm.pushOperand(value.Num(float64(operand))); err != nil {
				return value.NilValue, err
			}
		case bytecode.LDB:
			if err := vm.pushOperand(value.Bool(operand != 0)); err != nil {
				return value.NilValue, err
			}
		case bytecode.NIL:
			if err := vm.pushOperand(value.NilValue); err != nil {
				return value.NilValue, err
			}
		case bytecode.JMP:
			frame.PC += int(operand)
		case bytecode.JOF:
			if vm.popOperand().IsFalsy() {
				frame.PC += int(operand)
			}
		case bytecode.CALL:
			if err := vm.doCall(int(operand), false, loc); err != nil {
				return value.NilValue, vm.annotate(err)
			}
		case bytecode.TAIL:
			if err := vm.doCall(int(operand), true, loc); err != nil {
				return value.NilValue, vm.annotate(err)
			}
		case bytecode.RET:
			done, result := vm.doReturn()
			if done {
				return result, nil
			}
		case bytecode.CLS:
			if err := vm.doClosure(frame, int(operand)); err != nil {
				return value.NilValue, err
			}
		case bytecode.IMP, bytecode.LDS:
			if err := vm.doLoad(frame, int(operand), loc); err != nil {
				return value.NilValue, vm.annotate(err)
			}
		case bytecode.DEF:
			vm.resolver.Define(frame.Fn.Imports[operand], vm.popOperand())
		case bytecode.BOXNEW:
			if err := vm.pushOperand(value.NewBox()); err != nil {
				return value.NilValue, err
			}
		case bytecode.UNBOX:
			box := vm.popOperand()
			if err := vm.pushOperand(box.BoxGet()); err != nil {
				return value.NilValue, err
			}
		case bytecode.SETBOX:
			vm.env[frame.EnvBase+int(operand)].BoxSet(vm.popOperand())
		case bytecode.PLHR:
			if err := vm.pushOperand(value.PlaceholderValue(uint32(operand), "")); err != nil {
				return value.NilValue, err
			}
		default:
			return value.NilValue, runtimeErr(BadType, loc, "unknown opcode %s", op)
		}
	}
}

func (vm *VM) annotate(err error) error {
	rerr, ok := err.(*Error)
	if !ok || rerr.Traceback != nil {
		return err
	}
	rerr.Traceback = vm.Traceback()
	return rerr
}

func (vm *VM) doLoad(frame *Frame, k int, loc token.Range) error {
	name := frame.Fn.Imports[k]
	v, ok := vm.resolver.Resolve(name)
	if !ok {
		return runtimeErr(UnboundSymbol, loc, "unbound symbol '%s'", name)
	}
	return vm.pushOperand(v)
}

func (vm *VM) doClosure(frame *Frame, k int) error {
	nested := frame.Fn.Nested[k]
	captured := make([]value.Value, nested.NumCaptures)
	for i := nested.NumCaptures - 1; i >= 0; i-- {
		captured[i] = vm.popOperand()
	}
	cl := &Closure{Fn: nested, Captured: captured}
	return vm.pushOperand(value.Value{Kind: value.Function, Ref: cl})
}

func (vm *VM) doCall(argc int, tail bool, loc token.Range) error {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.popOperand()
	}
	callee := vm.popOperand()
	if callee.Kind != value.Function {
		return runtimeErr(BadType, loc, "attempt to call a %s value", callee.Kind)
	}
	closure := callee.Ref.(*Closure)
	return vm.invoke(closure, args, tail, loc)
}

func (vm *VM) invoke(closure *Closure, args []value.Value, tail bool, loc token.Range) error {
	if closure.IsNative {
		if err := vm.pushNativeFrame(closure, loc); err != nil {
			return err
		}
		result, err := closure.Native(vm, args)
		if err != nil {
			if rerr, ok := err.(*Error); ok && rerr.Traceback == nil {
				rerr.Traceback = vm.Traceback()
			}
			vm.popNativeFrame()
			return err
		}
		vm.popNativeFrame()
		return vm.pushOperand(result)
	}

	fn := closure.Fn
	if fn.Variadic {
		if len(args) < fn.Arity {
			return runtimeErr(ArityMismatch, loc, "%s expects at least %d arguments, got %d", debugName(fn), fn.Arity, len(args))
		}
	} else if len(args) != fn.Arity {
		return runtimeErr(ArityMismatch, loc, "%s expects %d arguments, got %d", debugName(fn), fn.Arity, len(args))
	}

	if tail && vm.frameTop > 0 {
		return vm.replaceFrame(closure, fn, args, loc)
	}
	return vm.pushFrame(closure, fn, args, loc)
}

func debugName(fn *bytecode.Function) string {
	if fn.DebugName != "" {
		return fn.DebugName
	}
	return "<anonymous>"
}

func bindArgs(slots []value.Value, fn *bytecode.Function, args []value.Value) {
	if fn.Variadic {
		copy(slots, args[:fn.Arity])
		rest := append([]value.Value(nil), args[fn.Arity:]...)
		slots[fn.Arity] = value.List_(rest)
		return
	}
	copy(slots, args)
}

func (vm *VM) pushNativeFrame(cl *Closure, loc token.Range) error {
	if vm.frameTop >= len(vm.frames) {
		return &Error{Kind: StackOverflow, Message: "call stack exhausted in native call", Loc: loc}
	}
	vm.frames[vm.frameTop] = Frame{Closure: cl, NativeSite: true, CallLoc: loc}
	vm.frameTop++
	return nil
}

func (vm *VM) popNativeFrame() {
	vm.frameTop--
}

func (vm *VM) pushFrame(closure *Closure, fn *bytecode.Function, args []value.Value, loc token.Range) error {
	if vm.frameTop >= len(vm.frames) {
		return &Error{Kind: StackOverflow, Message: "call stack exhausted", Loc: loc}
	}
	envBase := vm.envTop
	if envBase+fn.EnvSize > len(vm.env) {
		return &Error{Kind: StackOverflow, Message: "environment stack exhausted", Loc: loc}
	}
	vm.envTop += fn.EnvSize
	copy(vm.env[envBase:envBase+fn.NumCaptures], closure.Captured)
	bindArgs(vm.env[envBase+fn.NumCaptures:envBase+fn.EnvSize], fn, args)

	vm.frames[vm.frameTop] = Frame{Closure: closure, Fn: fn, PC: 0, EnvBase: envBase, OperandBase: vm.operandTop}
	vm.frameTop++
	return nil
}

// replaceFrame implements TAIL: it reuses the current call-stack slot and
// rewinds the environment stack to the current frame's base before
// growing it again, so a tail-recursive loop never grows either stack
// (spec.md §8's tail-call non-growth property).
func (vm *VM) replaceFrame(closure *Closure, fn *bytecode.Function, args []value.Value, loc token.Range) error {
	cur := &vm.frames[vm.frameTop-1]
	envBase := cur.EnvBase
	if envBase+fn.EnvSize > len(vm.env) {
		return &Error{Kind: StackOverflow, Message: "environment stack exhausted", Loc: loc}
	}
	vm.envTop = envBase + fn.EnvSize
	copy(vm.env[envBase:envBase+fn.NumCaptures], closure.Captured)
	bindArgs(vm.env[envBase+fn.NumCaptures:envBase+fn.EnvSize], fn, args)

	cur.Closure = closure
	cur.Fn = fn
	cur.PC = 0
	cur.OperandBase = vm.operandTop
	return nil
}

func (vm *VM) doReturn() (done bool, result value.Value) {
	result = vm.popOperand()
	frame := vm.frames[vm.frameTop-1]
	vm.envTop = frame.EnvBase
	vm.operandTop = frame.OperandBase
	vm.frameTop--
	if vm.frameTop == 0 {
		return true, result
	}
	vm.pushOperand(result)
	return false, result
}

// Traceback captures the current call stack, most recent frame first, in
// the {filename, location, function-name} shape spec.md's error handling
// design calls for.
func (vm *VM) Traceback() []TraceFrame {
	frames := make([]TraceFrame, 0, vm.frameTop)
	for i := vm.frameTop - 1; i >= 0; i-- {
		f := vm.frames[i]
		if f.NativeSite {
			name := f.Closure.NativeName
			if name == "" {
				name = "<native>"
			}
			frames = append(frames, TraceFrame{FunctionName: name, Native: true})
			continue
		}
		name := debugName(f.Fn)
		pc := f.PC - 1
		var loc token.Range
		if pc >= 0 && pc < len(f.Fn.Locations) {
			loc = f.Fn.Locations[pc]
		}
		frames = append(frames, TraceFrame{FunctionName: name, Filename: f.Fn.SourceName, Loc: loc})
	}
	return frames
}
