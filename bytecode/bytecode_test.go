package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lip/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		op      Opcode
		operand int32
	}{
		{LDC, 0},
		{LDC, 42},
		{JMP, -1},
		{JMP, MaxOperand},
		{JMP, MinOperand},
		{LDI, -12345},
	}
	for _, c := range cases {
		instr := Encode(c.op, c.operand)
		require.Equal(t, c.op, instr.Opcode())
		require.Equal(t, c.operand, instr.Operand())
	}
}

func TestEncodeZeroOperandOpcodesAcceptZero(t *testing.T) {
	instr := Encode(NIL, 0)
	require.Equal(t, NIL, instr.Opcode())
	require.False(t, instr.Opcode().HasOperand())
}

func TestEncodePanicsOutOfRange(t *testing.T) {
	require.Panics(t, func() { Encode(LDC, MaxOperand+1) })
	require.Panics(t, func() { Encode(LDC, MinOperand-1) })
}

func TestInstructionString(t *testing.T) {
	require.Equal(t, "NIL", Encode(NIL, 0).String())
	require.Equal(t, "LDC 3", Encode(LDC, 3).String())
	require.Equal(t, "JMP -1", Encode(JMP, -1).String())
}

func TestOpcodeStringUnknown(t *testing.T) {
	require.Equal(t, "UNKNOWN", Opcode(numOpcodes+1).String())
}

func TestDisassembleInstructionResolvesConstant(t *testing.T) {
	fn := &Function{
		Instructions: []Instruction{Encode(LDC, 0), Encode(RET, 0)},
	}
	fn.Constants = []value.Value{value.Num(7)}
	line := DisassembleInstruction(fn, 0)
	require.Contains(t, line, "LDC")
	require.Contains(t, line, "7")
}
