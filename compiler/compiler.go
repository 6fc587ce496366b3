// Package compiler translates a desugared AST into bytecode.Function
// values: lexical scopes, upvalue capture, constant/import pool
// deduplication, jump-label patching, and tail-call position analysis,
// per spec.md §4.6. Grounded on the teacher's ASTCompiler
// (compiler/ast_compiler.go): a visitor-shaped emitter walking the tree
// once, backpatching jump targets after the fact.
package compiler

import (
	"math"

	"lip/ast"
	"lip/bytecode"
	"lip/token"
	"lip/value"
)

// Compiler compiles one function body (the top-level program, or a single
// lambda) into a bytecode.Function. Lambdas compile through a child
// Compiler whose parent link lets resolve walk outward for captures.
type Compiler struct {
	parent *Compiler
	fn     *bytecode.Function

	scopes     []*blockScope
	scopeDepth int

	localCount   int
	captureCount int
	captures     []captureInfo
	localFixups  []int

	imports map[string]int
}

// CompileProgram compiles a sequence of top-level forms into the program's
// root Function. Each form's value is left on the operand stack only for
// the very last one; earlier ones are popped, matching a script's
// expression-sequence semantics.
func CompileProgram(forms []*ast.Node, sourceName string) (*bytecode.Function, error) {
	c := newRootCompiler(sourceName)
	c.pushScope()
	if err := c.compileBody(forms, false); err != nil {
		return nil, err
	}
	c.popScope()
	c.emit(bytecode.RET, 0, token.Range{})
	c.finalize()
	return c.fn, nil
}

func newRootCompiler(sourceName string) *Compiler {
	return &Compiler{
		fn:      &bytecode.Function{SourceName: sourceName, DebugName: "<program>"},
		imports: make(map[string]int),
	}
}

func newChildCompiler(parent *Compiler, debugName string) *Compiler {
	return &Compiler{
		parent:  parent,
		fn:      &bytecode.Function{SourceName: parent.fn.SourceName, DebugName: debugName},
		imports: make(map[string]int),
	}
}

func (c *Compiler) emit(op bytecode.Opcode, operand int32, loc token.Range) int {
	pos := len(c.fn.Instructions)
	c.fn.Instructions = append(c.fn.Instructions, bytecode.Encode(op, operand))
	c.fn.Locations = append(c.fn.Locations, loc)
	return pos
}

// emitLocalRef emits an LDL/SET referencing a not-yet-final local slot;
// the operand is patched by += NumCaptures once the whole function is
// compiled and the true capture count is known (see finalize).
func (c *Compiler) emitLocalRef(op bytecode.Opcode, slot int, loc token.Range) {
	pos := c.emit(op, int32(slot), loc)
	c.localFixups = append(c.localFixups, pos)
}

func (c *Compiler) emitJump(op bytecode.Opcode, loc token.Range) int {
	return c.emit(op, 0, loc)
}

func (c *Compiler) patchJump(pos int) {
	target := len(c.fn.Instructions)
	instr := c.fn.Instructions[pos]
	c.fn.Instructions[pos] = bytecode.Encode(instr.Opcode(), int32(target-pos-1))
}

func (c *Compiler) addConstant(v value.Value) int {
	for i, existing := range c.fn.Constants {
		if value.Equal(existing, v) {
			return i
		}
	}
	c.fn.Constants = append(c.fn.Constants, v)
	return len(c.fn.Constants) - 1
}

// nameIndex deduplicates a free-variable or define-target name into fn's
// string pool (also addressed by IMP for reads and by DEF for the
// top-level `define` translation rule — see compileDefine).
func (c *Compiler) nameIndex(name string) int {
	if idx, ok := c.imports[name]; ok {
		return idx
	}
	idx := len(c.fn.Imports)
	c.fn.Imports = append(c.fn.Imports, name)
	c.imports[name] = idx
	return idx
}

func (c *Compiler) finalize() {
	for _, pos := range c.localFixups {
		instr := c.fn.Instructions[pos]
		c.fn.Instructions[pos] = bytecode.Encode(instr.Opcode(), instr.Operand()+int32(c.captureCount))
	}
	c.fn.NumCaptures = c.captureCount
	c.fn.EnvSize = c.captureCount + c.localCount
}

// compileNode emits n's bytecode, leaving exactly one value on the
// operand stack. tail indicates n occupies a tail position: an
// Application compiled there emits TAIL instead of CALL, per spec.md's
// tail-call non-growth property.
func (c *Compiler) compileNode(n *ast.Node, tail bool) error {
	switch n.Kind {
	case ast.Literal:
		return c.compileLiteral(n)
	case ast.Identifier:
		return c.compileIdentifier(n)
	case ast.Application:
		return c.compileApplication(n, tail)
	case ast.Lambda:
		return c.compileLambda(n)
	case ast.If:
		return c.compileIf(n, tail)
	case ast.Let:
		return c.compileLet(n, tail)
	case ast.Letrec:
		return c.compileLetrec(n, tail)
	case ast.Do:
		return c.compileBody(n.Body, tail)
	case ast.Define:
		return c.compileDefine(n)
	default:
		return errf(BadSpecialForm, n.Loc, "unsupported AST node kind %d", n.Kind)
	}
}

func (c *Compiler) compileLiteral(n *ast.Node) error {
	v := n.Value
	switch v.Kind {
	case value.Nil:
		c.emit(bytecode.NIL, 0, n.Loc)
	case value.Boolean:
		operand := int32(0)
		if v.IsTrue() {
			operand = 1
		}
		c.emit(bytecode.LDB, operand, n.Loc)
	case value.Number:
		if f := v.Num; f == math.Trunc(f) && f >= float64(bytecode.MinOperand) && f <= float64(bytecode.MaxOperand) {
			c.emit(bytecode.LDI, int32(f), n.Loc)
			return nil
		}
		c.emit(bytecode.LDC, int32(c.addConstant(v)), n.Loc)
	default:
		c.emit(bytecode.LDC, int32(c.addConstant(v)), n.Loc)
	}
	return nil
}

func (c *Compiler) compileIdentifier(n *ast.Node) error {
	name := n.Name.Lexeme
	if slot, isLocal, boxed, found := c.resolve(name); found {
		if isLocal {
			c.emitLocalRef(bytecode.LDL, slot, n.Loc)
		} else {
			c.emit(bytecode.LDL, int32(slot), n.Loc)
		}
		if boxed {
			c.emit(bytecode.UNBOX, 0, n.Loc)
		}
		return nil
	}
	c.emit(bytecode.IMP, int32(c.nameIndex(name)), n.Loc)
	return nil
}

func (c *Compiler) compileApplication(n *ast.Node, tail bool) error {
	if err := c.compileNode(n.Callee, false); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.compileNode(a, false); err != nil {
			return err
		}
	}
	op := bytecode.CALL
	if tail {
		op = bytecode.TAIL
	}
	c.emit(op, int32(len(n.Args)), n.Loc)
	return nil
}

func (c *Compiler) compileIf(n *ast.Node, tail bool) error {
	if err := c.compileNode(n.Cond, false); err != nil {
		return err
	}
	jof := c.emitJump(bytecode.JOF, n.Loc)
	if err := c.compileNode(n.Then, tail); err != nil {
		return err
	}
	jmp := c.emitJump(bytecode.JMP, n.Loc)
	c.patchJump(jof)
	if err := c.compileNode(n.Else, tail); err != nil {
		return err
	}
	c.patchJump(jmp)
	return nil
}

// compileBody compiles a sequence of forms (a lambda/let/letrec/do body),
// popping every intermediate value and leaving only the last on the
// stack. An empty body evaluates to nil.
func (c *Compiler) compileBody(body []*ast.Node, tail bool) error {
	if len(body) == 0 {
		c.emit(bytecode.NIL, 0, token.Range{})
		return nil
	}
	for i, stmt := range body {
		last := i == len(body)-1
		if err := c.compileNode(stmt, last && tail); err != nil {
			return err
		}
		if !last {
			c.emit(bytecode.POP, 1, stmt.Loc)
		}
	}
	return nil
}

func (c *Compiler) compileLet(n *ast.Node, tail bool) error {
	c.pushScope()
	for _, b := range n.Bindings {
		if err := c.compileNode(b.Expr, false); err != nil {
			return err
		}
		slot := c.declareLocal(b.Name.Lexeme)
		c.emitLocalRef(bytecode.SET, slot, b.Name.Range)
	}
	if err := c.compileBody(n.Body, tail); err != nil {
		return err
	}
	c.popScope()
	return nil
}

// compileLetrec compiles a `letrec`. Each binding gets its own local
// slot, but the slot holds a value.Box rather than the bound value
// directly (declareLocalBoxed; compileIdentifier emits an extra UNBOX
// when reading one). A closure that captures-by-value at construction
// time (spec.md §4.7's `CLS`) cannot see its own not-yet-assigned slot
// directly — that's why a plain local slot doesn't work for the
// canonical recursive-factorial-via-letrec case. Boxing sidesteps it
// without giving up locals entirely: the box is allocated and written
// into its slot *before* any binding's initializer runs, so a capture
// taken during CLS captures the box's pointer, not its (still empty)
// contents: once the initializer finishes and SETBOX fills the box,
// every closure that captured it — including the closure itself,
// recursively — observes the write. Unlike routing through the module
// registry by a compile-time-mangled name, this also stays correct when
// the letrec's lambda outlives the call that created it (a
// recursive-helper-returning factory called more than once): each call
// allocates its own fresh boxes, so two invocations never alias the same
// cell.
func (c *Compiler) compileLetrec(n *ast.Node, tail bool) error {
	c.pushScope()
	defer c.popScope()

	slots := make([]int, len(n.Bindings))
	for i, b := range n.Bindings {
		slots[i] = c.declareLocalBoxed(b.Name.Lexeme)
		c.emit(bytecode.BOXNEW, 0, b.Name.Range)
		c.emitLocalRef(bytecode.SET, slots[i], b.Name.Range)
	}

	uninitialized := make(map[string]bool, len(n.Bindings))
	for _, b := range n.Bindings {
		uninitialized[b.Name.Lexeme] = true
	}

	for i, b := range n.Bindings {
		if b.Expr.Kind != ast.Lambda {
			if err := checkLetrecInit(b.Expr, uninitialized); err != nil {
				return err
			}
		}
		if err := c.compileNode(b.Expr, false); err != nil {
			return err
		}
		c.emitLocalRef(bytecode.SETBOX, slots[i], b.Name.Range)
		delete(uninitialized, b.Name.Lexeme)
	}

	return c.compileBody(n.Body, tail)
}

// checkLetrecInit rejects a letrec binding's initializer directly
// referencing a sibling binding that is not yet assigned (spec.md's
// UNDEFINED_IN_LETREC). It does not descend into nested lambda bodies:
// references deferred behind a closure are fine, since they run after
// every binding has been assigned.
func checkLetrecInit(n *ast.Node, uninitialized map[string]bool) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.Identifier:
		if uninitialized[n.Name.Lexeme] {
			return errf(UndefinedInLetrec, n.Loc, "'%s' used before its letrec binding is initialized", n.Name.Lexeme)
		}
	case ast.Lambda:
		return nil
	case ast.Application:
		if err := checkLetrecInit(n.Callee, uninitialized); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := checkLetrecInit(a, uninitialized); err != nil {
				return err
			}
		}
	case ast.If:
		for _, sub := range []*ast.Node{n.Cond, n.Then, n.Else} {
			if err := checkLetrecInit(sub, uninitialized); err != nil {
				return err
			}
		}
	case ast.Let, ast.Letrec:
		for _, b := range n.Bindings {
			if err := checkLetrecInit(b.Expr, uninitialized); err != nil {
				return err
			}
		}
		for _, stmt := range n.Body {
			if err := checkLetrecInit(stmt, uninitialized); err != nil {
				return err
			}
		}
	case ast.Do:
		for _, stmt := range n.Body {
			if err := checkLetrecInit(stmt, uninitialized); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) compileLambda(n *ast.Node) error {
	child := newChildCompiler(c, "<lambda>")
	child.pushScope()
	for _, p := range n.Params {
		child.declareLocal(p.Lexeme)
	}
	if err := child.compileBody(n.Body, true); err != nil {
		return err
	}
	child.emit(bytecode.RET, 0, n.Loc)
	child.popScope()

	arity := len(n.Params)
	if n.Variadic {
		arity = 0
	}
	child.fn.Arity = arity
	child.fn.Variadic = n.Variadic
	child.finalize()

	nestedIdx := len(c.fn.Nested)
	c.fn.Nested = append(c.fn.Nested, child.fn)

	for _, cap := range child.captures {
		if cap.parentIsLocal {
			c.emitLocalRef(bytecode.LDL, cap.parentSlot, n.Loc)
		} else {
			c.emit(bytecode.LDL, int32(cap.parentSlot), n.Loc)
		}
	}
	c.emit(bytecode.CLS, int32(nestedIdx), n.Loc)
	return nil
}

// compileDefine implements spec.md §4.6's top-level translation rule:
// compile the value, then store into a module-registry slot addressed by
// the symbol name. Using SET for this (as the prose literally suggests)
// would collide with SET's other meaning, local-slot assignment, for a
// top-level `let`/`letrec` compiled in the same root function — so this
// is emitted as its own DEF opcode instead, addressed against the same
// name pool IMP/LDS share (see runtime.Context.Resolve and DESIGN.md).
func (c *Compiler) compileDefine(n *ast.Node) error {
	if err := c.compileNode(n.ValueExpr, false); err != nil {
		return err
	}
	idx := c.nameIndex(n.Name.Lexeme)
	c.emit(bytecode.DEF, int32(idx), n.Loc)
	c.emit(bytecode.NIL, 0, n.Loc)
	return nil
}
