package ast

import (
	"lip/sexpr"
	"lip/token"
)

// buildQuasiquote translates `quasiquote` (spec.md §4.4): nested `unquote`
// forms splice in a runtime-evaluated expression verbatim; nested
// `unquote-splicing` forms splice in a runtime list whose elements are
// appended in place. Both are desugared into `list`/`append` application
// nodes over runtime-evaluated pieces rather than any new AST kind.
func (b *Builder) buildQuasiquote(expr *sexpr.SExpr) (*Node, error) {
	operands := expr.Elements[1:]
	if len(operands) != 1 {
		return nil, badForm(expr.Range, "'quasiquote' expects exactly one operand")
	}
	return b.quasiquoteExpr(operands[0])
}

func (b *Builder) identifier(name string, loc token.Range) *Node {
	return b.newNode(Node{Kind: Identifier, Loc: loc, Name: token.Token{Kind: token.SYMBOL, Lexeme: name, Range: loc}})
}

func (b *Builder) quasiquoteExpr(expr *sexpr.SExpr) (*Node, error) {
	if isUnquoteForm(expr, "unquote") {
		return b.Build(expr.Elements[1], false)
	}
	if isUnquoteForm(expr, "unquote-splicing") {
		return nil, badForm(expr.Range, "'unquote-splicing' is only valid inside a quasiquoted list")
	}
	if expr.Kind != sexpr.ListExpr {
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: sexprToValue(expr)}), nil
	}

	segments := make([]*Node, 0, len(expr.Elements))
	for _, el := range expr.Elements {
		if isUnquoteForm(el, "unquote-splicing") {
			seg, err := b.Build(el.Elements[1], false)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			continue
		}
		qqEl, err := b.quasiquoteExpr(el)
		if err != nil {
			return nil, err
		}
		segments = append(segments, b.newNode(Node{
			Kind: Application, Loc: el.Range,
			Callee: b.identifier("list", el.Range),
			Args:   []*Node{qqEl},
		}))
	}
	if len(segments) == 1 {
		return segments[0], nil
	}
	return b.newNode(Node{
		Kind: Application, Loc: expr.Range,
		Callee: b.identifier("append", expr.Range),
		Args:   segments,
	}), nil
}

func isUnquoteForm(expr *sexpr.SExpr, sym string) bool {
	return expr.Kind == sexpr.ListExpr && len(expr.Elements) == 2 &&
		expr.Elements[0].Kind == sexpr.SymbolLexeme && expr.Elements[0].Text == sym
}
