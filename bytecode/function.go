package bytecode

import (
	"lip/token"
	"lip/value"
)

// Function is the compiled, immutable unit spec.md §3/§6 describes: a
// struct-of-arrays standing in for the original's contiguous memory block.
// Go slices replace manual pointer arithmetic (DESIGN NOTES §9); the
// ComputeLayout function below still produces the byte-offset table of
// the contiguous encoding, though nothing in this module calls it.
type Function struct {
	Instructions []Instruction
	Locations    []token.Range // parallel to Instructions

	Constants []value.Value
	Imports   []string    // free-variable names resolved against a module registry
	Nested    []*Function // inner lambdas

	Arity       int
	Variadic    bool
	EnvSize     int // total per-frame environment slots: captures, then params, then lets
	NumCaptures int // leading slice of EnvSize that CLS must pop values for
	SourceName  string
	DebugName   string
}

// Header mirrors spec.md §6's fixed-size header fields.
type Header struct {
	Magic           uint32
	Version         uint16
	Flags           uint16
	Arity           uint8
	Variadic        uint8
	EnvSize         uint16
	NumInstructions uint32
	NumConstants    uint16
	NumImports      uint16
	NumNested       uint16
	SourceNameOffset uint32
	DebugNameOffset  uint32
}

const (
	Magic          uint32 = 0x4C495021 // "LIP!"
	Version        uint16 = 1
	headerSize            = 4 + 2 + 2 + 1 + 1 + 2 + 4 + 2 + 2 + 2 + 4 + 4
	instructionSize        = 4
)

// Layout is the offset table a contiguous encoding of fn would use, per
// spec.md §6. It is computed but never actually serialized: persistence
// across process boundaries is out of scope (spec.md §1 non-goals), so
// this module keeps fn as live Go slices and only computes Layout on
// request through ComputeLayout.
type Layout struct {
	HeaderOffset       uint32
	InstructionsOffset uint32
	LocationsOffset    uint32
	ConstantsOffset    uint32
	ImportsOffset      uint32
	NestedOffset       uint32
	StringPoolOffset   uint32
	TotalSize          uint32
}

// ComputeLayout produces the byte-offset table fn's fields would occupy
// in a contiguous encoding, following the header ordering in spec.md §6.
func ComputeLayout(fn *Function) Layout {
	var l Layout
	l.HeaderOffset = 0
	l.InstructionsOffset = headerSize
	l.LocationsOffset = l.InstructionsOffset + uint32(len(fn.Instructions))*instructionSize
	// Each location range is 4 uint32 fields (start line/col, end line/col).
	l.ConstantsOffset = l.LocationsOffset + uint32(len(fn.Instructions))*16
	// Constants are 16-byte tagged cells in the spec's layout.
	l.ImportsOffset = l.ConstantsOffset + uint32(len(fn.Constants))*16
	l.NestedOffset = l.ImportsOffset + uint32(len(fn.Imports))*4
	l.StringPoolOffset = l.NestedOffset + uint32(len(fn.Nested))*4
	l.TotalSize = l.StringPoolOffset + stringPoolSize(fn)
	return l
}

func stringPoolSize(fn *Function) uint32 {
	var size uint32
	add := func(s string) {
		size += 4 + uint32(len(s)) // length-prefixed UTF-8
	}
	add(fn.SourceName)
	add(fn.DebugName)
	for _, imp := range fn.Imports {
		add(imp)
	}
	return size
}

// Header builds the fixed-size header describing fn, per spec.md §6.
func (fn *Function) Header() Header {
	variadic := uint8(0)
	if fn.Variadic {
		variadic = 1
	}
	return Header{
		Magic:           Magic,
		Version:         Version,
		Arity:           uint8(fn.Arity),
		Variadic:        variadic,
		EnvSize:         uint16(fn.EnvSize),
		NumInstructions: uint32(len(fn.Instructions)),
		NumConstants:    uint16(len(fn.Constants)),
		NumImports:      uint16(len(fn.Imports)),
		NumNested:       uint16(len(fn.Nested)),
	}
}
