// Package sexpr converts a token stream into s-expression trees: the
// parse-time-only variant over {number, string, symbol, list} described in
// spec.md §3/§4.3. Trees are owned by the Parser's arena and are only
// valid until the next top-level Read call resets it.
package sexpr

import "lip/token"

// Kind tags an SExpr's variant.
type Kind int

const (
	NumberLexeme Kind = iota
	StringLexeme
	SymbolLexeme
	ListExpr
)

// SExpr is a parse-time tree node: an atom (number/string/symbol lexeme)
// or a list of child SExprs, with a source location range.
type SExpr struct {
	Kind     Kind
	Text     string
	Num      float64
	Elements []*SExpr
	Range    token.Range
}

