package bytecode

import (
	"fmt"
	"strings"
)

// DisassembleInstruction renders a single instruction at index pc within fn,
// resolving LDC/CLS/IMP operands against fn's constant/nested/import tables
// where possible. Grounded on the teacher's DiassembleInstruction: a single
// line, opcode mnemonic first, operand and resolved annotation after.
func DisassembleInstruction(fn *Function, pc int) string {
	if pc < 0 || pc >= len(fn.Instructions) {
		return fmt.Sprintf("%04d  <out of range>", pc)
	}
	instr := fn.Instructions[pc]
	op := instr.Opcode()

	var b strings.Builder
	fmt.Fprintf(&b, "%04d  %-6s", pc, op)

	if !op.HasOperand() {
		return b.String()
	}
	operand := instr.Operand()
	fmt.Fprintf(&b, " %-6d", operand)

	switch op {
	case LDC:
		if operand >= 0 && int(operand) < len(fn.Constants) {
			fmt.Fprintf(&b, "; %s", fn.Constants[operand].String())
		}
	case LDS, IMP, DEF:
		if operand >= 0 && int(operand) < len(fn.Imports) {
			fmt.Fprintf(&b, "; %s", fn.Imports[operand])
		}
	case CLS:
		if operand >= 0 && int(operand) < len(fn.Nested) {
			fmt.Fprintf(&b, "; %s", fn.Nested[operand].DebugName)
		}
	case JMP, JOF:
		fmt.Fprintf(&b, "; -> %04d", pc+1+int(operand))
	}
	return b.String()
}

// DisassembleBytecode renders fn and every function nested inside it,
// recursively, as a human-readable listing used by the `disasm` CLI
// subcommand. Grounded on the teacher's
// DiassembleBytecode walking style.
func DisassembleBytecode(fn *Function) string {
	var b strings.Builder
	disassemble(&b, fn, 0)
	return b.String()
}

func disassemble(b *strings.Builder, fn *Function, depth int) {
	indent := strings.Repeat("  ", depth)
	name := fn.DebugName
	if name == "" {
		name = "<anonymous>"
	}
	fmt.Fprintf(b, "%sfunction %s (arity=%d variadic=%t env=%d)\n", indent, name, fn.Arity, fn.Variadic, fn.EnvSize)
	for pc := range fn.Instructions {
		fmt.Fprintf(b, "%s  %s\n", indent, DisassembleInstruction(fn, pc))
	}
	for _, nested := range fn.Nested {
		disassemble(b, nested, depth+1)
	}
}
