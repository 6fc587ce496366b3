package compiler

// localVar is a single param/let/letrec binding visible inside one
// function's body, per spec.md §4.6: "a stack of lexical scopes; each
// maps a symbol name to {slot-index, kind∈{local, upvalue}}".
type localVar struct {
	name  string
	depth int
	slot  int
	// boxed is true for letrec bindings: the slot holds a value.Box, not
	// the bound value directly. See compileLetrec.
	boxed bool
}

type blockScope struct {
	locals []localVar
}

// captureInfo records a free variable this function closes over: slot is
// this function's own environment slot for the value, parentSlot is where
// the enclosing function keeps it (its own local or, transitively, its own
// capture).
type captureInfo struct {
	name          string
	slot          int
	parentSlot    int
	parentIsLocal bool
	boxed         bool
}

// pushScope/popScope bracket `let`/`letrec` forms (and each lambda's and
// the program's whole body; `do` opens no scope of its own) so names declared
// inside go out of scope at the closing paren, mirroring the teacher's
// beginScope/endScope pair in ast_compiler.go.
func (c *Compiler) pushScope() {
	c.scopeDepth++
	c.scopes = append(c.scopes, &blockScope{})
}

func (c *Compiler) popScope() {
	c.scopeDepth--
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// declareLocal assigns the next local slot (offset later by NumCaptures in
// finalize) to name and records it in the innermost block scope.
func (c *Compiler) declareLocal(name string) int {
	return c.declareLocalSlot(name, false)
}

// declareLocalBoxed is like declareLocal but marks the slot as holding a
// value.Box rather than the bound value directly. Used for letrec
// bindings; see compileLetrec.
func (c *Compiler) declareLocalBoxed(name string) int {
	return c.declareLocalSlot(name, true)
}

func (c *Compiler) declareLocalSlot(name string, boxed bool) int {
	slot := c.localCount
	c.localCount++
	top := c.scopes[len(c.scopes)-1]
	top.locals = append(top.locals, localVar{name: name, depth: c.scopeDepth, slot: slot, boxed: boxed})
	return slot
}

// resolveLocal searches this function's own scopes, innermost first, for
// name. It does not cross a function boundary.
func (c *Compiler) resolveLocal(name string) (slot int, boxed bool, found bool) {
	for s := len(c.scopes) - 1; s >= 0; s-- {
		locals := c.scopes[s].locals
		for i := len(locals) - 1; i >= 0; i-- {
			if locals[i].name == name {
				return locals[i].slot, locals[i].boxed, true
			}
		}
	}
	return 0, false, false
}

// resolveCapture returns the slot already assigned to an existing capture
// of name in this function, if any.
func (c *Compiler) resolveCapture(name string) (slot int, boxed bool, found bool) {
	for _, cap := range c.captures {
		if cap.name == name {
			return cap.slot, cap.boxed, true
		}
	}
	return 0, false, false
}

// resolve finds name as a local or a (possibly freshly materialized)
// capture, recursing into enclosing functions. Every function between the
// definition site and the use site registers its own capture entry, the
// classic upvalue-chaining construction (spec.md §4.6: "references to
// outer-scope symbols are rewritten as captures and recorded on the
// enclosing scope's capture list"). boxed propagates unchanged through
// every capture hop: a letrec binding's slot always holds a value.Box,
// whichever function ends up reading it, and capturing only ever copies
// the Box's pointer, never its contents.
func (c *Compiler) resolve(name string) (slot int, isLocal bool, boxed bool, found bool) {
	if slot, boxed, ok := c.resolveLocal(name); ok {
		return slot, true, boxed, true
	}
	if slot, boxed, ok := c.resolveCapture(name); ok {
		return slot, false, boxed, true
	}
	if c.parent == nil {
		return 0, false, false, false
	}
	parentSlot, parentIsLocal, boxed, found := c.parent.resolve(name)
	if !found {
		return 0, false, false, false
	}
	slot = c.captureCount
	c.captureCount++
	c.captures = append(c.captures, captureInfo{name: name, slot: slot, parentSlot: parentSlot, parentIsLocal: parentIsLocal, boxed: boxed})
	return slot, false, boxed, true
}
