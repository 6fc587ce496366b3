// Package ast desugars s-expressions into a typed AST and validates the
// dialect's special forms, per spec.md §3/§4.4. Nodes are allocated out of
// a Builder's arena.Pool, not individually with the built-in allocator
// (spec.md §4.1: "AST node ... owned by a compile-time arena").
package ast

import (
	"lip/token"
	"lip/value"
)

// Kind tags a Node's variant.
type Kind int

const (
	Literal Kind = iota
	Identifier
	Application
	Lambda
	If
	Let
	Letrec
	Do
	Quote
	Define
)

// Binding is a single (name expr) pair used by Let and Letrec.
type Binding struct {
	Name token.Token
	Expr *Node
}

// Node is a typed AST node. Only the fields relevant to Kind are
// populated; this mirrors spec.md §3's tagged-variant description.
type Node struct {
	Kind Kind
	Loc  token.Range

	// Literal
	Value value.Value

	// Identifier / Define name
	Name token.Token

	// Application
	Callee *Node
	Args   []*Node

	// Lambda
	Params   []token.Token
	Variadic bool
	Body     []*Node

	// If
	Cond, Then, Else *Node

	// Let / Letrec
	Bindings []Binding

	// Define
	ValueExpr *Node
}
