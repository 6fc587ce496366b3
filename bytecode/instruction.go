package bytecode

import "fmt"

// Instruction is a packed 32-bit word: opcode in the low 6 bits, a signed
// 26-bit operand in the high bits, per spec.md §4.5.
type Instruction uint32

const (
	opcodeBits  = 6
	operandBits = 32 - opcodeBits
	opcodeMask  = (1 << opcodeBits) - 1

	// MaxOperand and MinOperand bound the signed 26-bit operand range a
	// single Instruction can encode.
	MaxOperand = int32(1)<<(operandBits-1) - 1
	MinOperand = -(int32(1) << (operandBits - 1))
)

// Encode packs an opcode and a signed operand into an Instruction. It
// panics if operand does not fit in 26 signed bits — this is a compiler
// invariant violation, not a runtime condition (the compiler range-checks
// LDI immediates in compileLiteral before emitting; other operands are
// table indices and jump offsets it does not check).
func Encode(op Opcode, operand int32) Instruction {
	if operand < MinOperand || operand > MaxOperand {
		panic(fmt.Sprintf("bytecode: operand %d out of 26-bit signed range for %s", operand, op))
	}
	return Instruction(uint32(op)&opcodeMask | (uint32(operand) << opcodeBits))
}

// Opcode extracts the instruction's opcode.
func (i Instruction) Opcode() Opcode {
	return Opcode(uint32(i) & opcodeMask)
}

// Operand extracts the instruction's sign-extended operand.
func (i Instruction) Operand() int32 {
	return int32(uint32(i)) >> opcodeBits
}

func (i Instruction) String() string {
	op := i.Opcode()
	if !op.HasOperand() {
		return op.String()
	}
	return fmt.Sprintf("%s %d", op, i.Operand())
}
