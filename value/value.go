// Package value defines the runtime value model shared by the compiler and
// the VM: a small tagged union, passed by copy, with reference kinds
// pointing into context- or VM-owned memory. See spec.md §3.
package value

import (
	"fmt"
	"math"
	"strings"
)

// Kind tags a Value's variant.
type Kind byte

const (
	Nil Kind = iota
	Boolean
	Number
	String
	Symbol
	List
	Function
	Placeholder
	Native
	Box
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case List:
		return "list"
	case Function:
		return "function"
	case Placeholder:
		return "placeholder"
	case Native:
		return "native-reference"
	case Box:
		return "box"
	default:
		return "unknown"
	}
}

// Value is the uniform, copy-by-value runtime cell. Heap-backed kinds
// (String, Symbol, List, Function, Native) carry their payload in Ref;
// Number carries its payload directly in Num; Placeholder carries its
// compile-time index in Idx.
type Value struct {
	Kind Kind
	Num  float64
	Idx  uint32
	Ref  any
}

// NilValue is the singular nil value.
var NilValue = Value{Kind: Nil}

// TrueValue and FalseValue are the two boolean values.
var (
	TrueValue  = Value{Kind: Boolean, Num: 1}
	FalseValue = Value{Kind: Boolean, Num: 0}
)

// Bool constructs a boolean Value.
func Bool(b bool) Value {
	if b {
		return TrueValue
	}
	return FalseValue
}

// IsTrue reports whether v is boolean true.
func (v Value) IsTrue() bool {
	return v.Kind == Boolean && v.Num != 0
}

// Num constructs a number Value.
func Num(n float64) Value {
	return Value{Kind: Number, Num: n}
}

// Str constructs a string Value. Strings are immutable after creation.
func Str(s string) Value {
	return Value{Kind: String, Ref: s}
}

// Sym constructs a symbol Value. Symbols and strings share a Go string
// representation but are distinguished by Kind.
func Sym(s string) Value {
	return Value{Kind: Symbol, Ref: s}
}

// Str/Sym accessors.
func (v Value) AsString() string {
	return v.Ref.(string)
}

// List_ constructs a list Value from a (possibly empty) slice of elements.
// Lists are immutable once constructed; callers must not mutate elems
// after passing it here.
func List_(elems []Value) Value {
	return Value{Kind: List, Ref: elems}
}

func (v Value) AsList() []Value {
	if v.Ref == nil {
		return nil
	}
	return v.Ref.([]Value)
}

// IsFalsy reports whether v is the nil value or boolean false — the
// dialect's "falsy" set used by Not and JOF (spec.md §4.8). The empty
// list is not falsy.
func (v Value) IsFalsy() bool {
	switch v.Kind {
	case Nil:
		return true
	case Boolean:
		return v.Num == 0
	default:
		return false
	}
}

// PlaceholderValue constructs a compile-time placeholder value standing in for
// a not-yet-resolved recursive binding. No executed instruction may
// observe one (spec.md §3 invariants).
func PlaceholderValue(idx uint32, name string) Value {
	return Value{Kind: Placeholder, Idx: idx, Ref: name}
}

func (v Value) PlaceholderName() string {
	if v.Ref == nil {
		return ""
	}
	name, _ := v.Ref.(string)
	return name
}

// NewBox allocates a fresh mutable cell. The compiler routes letrec
// bindings through boxed locals instead of plain ones: a plain local
// slot is copied by value into every capture, so a closure created on
// one call of the enclosing function and a closure created on another
// call would alias the same slot index but not the same storage. A Box's
// Ref is a pointer, so copying the Box (into a capture list, into
// another env slot) copies the pointer, and every copy keeps observing
// writes made through any other copy — which is exactly what a letrec
// binding's self- and mutual-reference needs across repeated
// invocations.
func NewBox() Value {
	return Value{Kind: Box, Ref: &Value{Kind: Nil}}
}

// BoxGet dereferences a Box value. Callers must only invoke it on a
// Value with Kind == Box.
func (v Value) BoxGet() Value {
	return *(v.Ref.(*Value))
}

// BoxSet stores inner into the cell v points at.
func (v Value) BoxSet(inner Value) {
	*(v.Ref.(*Value)) = inner
}

// Equal implements by-content equality: nil/boolean/number compare by
// payload, string/symbol by byte content, lists element-wise, anything
// else by reference identity of Ref.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Nil:
		return true
	case Boolean, Number:
		return a.Num == b.Num
	case String, Symbol:
		return a.AsString() == b.AsString()
	case List:
		al, bl := a.AsList(), b.AsList()
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !Equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	default:
		return a.Ref == b.Ref
	}
}

// Cmp implements the dialect's total order: tag first (by Kind), then
// payload, with lists compared lexicographically and strings by byte
// content (spec.md §4.8).
func Cmp(a, b Value) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case Nil:
		return 0
	case Boolean, Number:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		default:
			return 0
		}
	case String, Symbol:
		return strings.Compare(a.AsString(), b.AsString())
	case List:
		al, bl := a.AsList(), b.AsList()
		n := len(al)
		if len(bl) < n {
			n = len(bl)
		}
		for i := 0; i < n; i++ {
			if c := Cmp(al[i], bl[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(al) < len(bl):
			return -1
		case len(al) > len(bl):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// String renders v for diagnostics and the REPL.
func (v Value) String() string {
	switch v.Kind {
	case Nil:
		return "nil"
	case Boolean:
		if v.IsTrue() {
			return "true"
		}
		return "false"
	case Number:
		if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
			return fmt.Sprintf("%v", v.Num)
		}
		return formatNumber(v.Num)
	case String:
		return fmt.Sprintf("%q", v.AsString())
	case Symbol:
		return v.AsString()
	case List:
		elems := v.AsList()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case Function:
		return "<function>"
	case Native:
		return "<native>"
	case Placeholder:
		return fmt.Sprintf("<placeholder %s>", v.PlaceholderName())
	case Box:
		return "<box>"
	default:
		return "<unknown>"
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
