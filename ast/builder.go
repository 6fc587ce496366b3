package ast

import (
	"lip/arena"
	"lip/sexpr"
	"lip/token"
	"lip/value"
)

var specialForms = map[string]bool{
	"if": true, "let": true, "letrec": true, "do": true,
	"lambda": true, "quote": true, "quasiquote": true, "define": true,
}

// Builder owns the arena a script's AST nodes are allocated from, mirroring
// sexpr.Parser's nodes pool (spec.md §4.1: AST nodes are arena-owned, not
// individually garbage-collected allocations). A Builder is meant to live
// for one script: construct one, call Build once per top-level form, then
// let it go once the compiler has consumed every form (or call Reset to
// reuse it for the next script).
type Builder struct {
	nodes *arena.Pool[Node]
}

// NewBuilder creates a Builder with its own node pool.
func NewBuilder() *Builder {
	return &Builder{nodes: arena.NewPool[Node](128)}
}

// Reset releases every Node this Builder has handed out so far, for reuse
// once the compiler has consumed them.
func (b *Builder) Reset() {
	b.nodes.Reset()
}

// Destroy releases the Builder's backing pool entirely.
func (b *Builder) Destroy() {
	b.nodes.Destroy()
}

func (b *Builder) newNode(n Node) *Node {
	p := b.nodes.Alloc()
	*p = n
	return p
}

// Build translates a single parsed s-expression into an AST node using a
// private, one-off Builder. Convenient for callers that only need one tree
// (tests, a single REPL line); a script with several top-level forms should
// construct a Builder once and call its Build method directly (see
// runtime.Context.LoadScript) so every node in the program shares one arena.
func Build(expr *sexpr.SExpr, topLevel bool) (*Node, error) {
	return NewBuilder().Build(expr, topLevel)
}

// Build translates a parsed s-expression into an AST node. topLevel
// indicates whether expr appears directly at the top of a script (or in
// the body of a top-level `do`), the only place `define` is legal
// (spec.md §4.4).
func (b *Builder) Build(expr *sexpr.SExpr, topLevel bool) (*Node, error) {
	switch expr.Kind {
	case sexpr.NumberLexeme:
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.Num(expr.Num)}), nil
	case sexpr.StringLexeme:
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.Str(expr.Text)}), nil
	case sexpr.SymbolLexeme:
		return b.buildSymbol(expr), nil
	case sexpr.ListExpr:
		return b.buildList(expr, topLevel)
	default:
		return nil, badForm(expr.Range, "unrecognized s-expression")
	}
}

func (b *Builder) buildSymbol(expr *sexpr.SExpr) *Node {
	switch expr.Text {
	case "true":
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.TrueValue})
	case "false":
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.FalseValue})
	case "nil":
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.NilValue})
	default:
		return b.newNode(Node{Kind: Identifier, Loc: expr.Range, Name: token.Token{Kind: token.SYMBOL, Lexeme: expr.Text, Range: expr.Range}})
	}
}

func (b *Builder) buildList(expr *sexpr.SExpr, topLevel bool) (*Node, error) {
	if len(expr.Elements) == 0 {
		return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.List_(nil)}), nil
	}

	head := expr.Elements[0]
	if head.Kind == sexpr.SymbolLexeme && specialForms[head.Text] {
		switch head.Text {
		case "if":
			return b.buildIf(expr)
		case "let":
			return b.buildLetForm(expr, Let)
		case "letrec":
			return b.buildLetForm(expr, Letrec)
		case "do":
			return b.buildDo(expr, topLevel)
		case "lambda":
			return b.buildLambda(expr)
		case "quote":
			return b.buildQuote(expr)
		case "quasiquote":
			return b.buildQuasiquote(expr)
		case "define":
			return b.buildDefine(expr, topLevel)
		}
	}

	return b.buildApplication(expr)
}

func (b *Builder) buildApplication(expr *sexpr.SExpr) (*Node, error) {
	callee, err := b.Build(expr.Elements[0], false)
	if err != nil {
		return nil, err
	}
	args := make([]*Node, 0, len(expr.Elements)-1)
	for _, a := range expr.Elements[1:] {
		n, err := b.Build(a, false)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return b.newNode(Node{Kind: Application, Loc: expr.Range, Callee: callee, Args: args}), nil
}

func (b *Builder) buildIf(expr *sexpr.SExpr) (*Node, error) {
	operands := expr.Elements[1:]
	if len(operands) != 2 && len(operands) != 3 {
		return nil, badForm(expr.Range, "'if' expects 2 or 3 operands, got %d", len(operands))
	}
	cond, err := b.Build(operands[0], false)
	if err != nil {
		return nil, err
	}
	then, err := b.Build(operands[1], false)
	if err != nil {
		return nil, err
	}
	var elseNode *Node
	if len(operands) == 3 {
		elseNode, err = b.Build(operands[2], false)
		if err != nil {
			return nil, err
		}
	} else {
		elseNode = b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: value.NilValue})
	}
	return b.newNode(Node{Kind: If, Loc: expr.Range, Cond: cond, Then: then, Else: elseNode}), nil
}

func (b *Builder) buildLetForm(expr *sexpr.SExpr, kind Kind) (*Node, error) {
	operands := expr.Elements[1:]
	formName := "let"
	if kind == Letrec {
		formName = "letrec"
	}
	if len(operands) < 2 {
		return nil, badForm(expr.Range, "'%s' expects a bindings list and at least one body form", formName)
	}
	bindingsExpr := operands[0]
	if bindingsExpr.Kind != sexpr.ListExpr {
		return nil, badForm(bindingsExpr.Range, "'%s' bindings must be a list of (name expr) pairs", formName)
	}
	var bindings []Binding
	for _, pair := range bindingsExpr.Elements {
		if pair.Kind != sexpr.ListExpr || len(pair.Elements) != 2 {
			return nil, badForm(pair.Range, "'%s' binding must be a (name expr) pair", formName)
		}
		nameExpr := pair.Elements[0]
		if nameExpr.Kind != sexpr.SymbolLexeme {
			return nil, badForm(nameExpr.Range, "'%s' binding name must be a symbol", formName)
		}
		valExpr, err := b.Build(pair.Elements[1], false)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{
			Name: token.Token{Kind: token.SYMBOL, Lexeme: nameExpr.Text, Range: nameExpr.Range},
			Expr: valExpr,
		})
	}
	body, err := b.buildBodyForms(operands[1:], false)
	if err != nil {
		return nil, err
	}
	return b.newNode(Node{Kind: kind, Loc: expr.Range, Bindings: bindings, Body: body}), nil
}

func (b *Builder) buildDo(expr *sexpr.SExpr, topLevel bool) (*Node, error) {
	body, err := b.buildBodyForms(expr.Elements[1:], topLevel)
	if err != nil {
		return nil, err
	}
	return b.newNode(Node{Kind: Do, Loc: expr.Range, Body: body}), nil
}

func (b *Builder) buildBodyForms(forms []*sexpr.SExpr, topLevel bool) ([]*Node, error) {
	body := make([]*Node, 0, len(forms))
	for _, f := range forms {
		n, err := b.Build(f, topLevel)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	return body, nil
}

func (b *Builder) buildLambda(expr *sexpr.SExpr) (*Node, error) {
	operands := expr.Elements[1:]
	if len(operands) < 2 {
		return nil, badForm(expr.Range, "'lambda' expects a parameter list and at least one body form")
	}
	paramsExpr := operands[0]

	var params []token.Token
	variadic := false
	switch paramsExpr.Kind {
	case sexpr.SymbolLexeme:
		variadic = true
		params = []token.Token{{Kind: token.SYMBOL, Lexeme: paramsExpr.Text, Range: paramsExpr.Range}}
	case sexpr.ListExpr:
		for _, p := range paramsExpr.Elements {
			if p.Kind != sexpr.SymbolLexeme {
				return nil, badForm(p.Range, "'lambda' parameter must be a symbol")
			}
			params = append(params, token.Token{Kind: token.SYMBOL, Lexeme: p.Text, Range: p.Range})
		}
	default:
		return nil, badForm(paramsExpr.Range, "'lambda' parameters must be a symbol or a list of symbols")
	}

	body, err := b.buildBodyForms(operands[1:], false)
	if err != nil {
		return nil, err
	}
	return b.newNode(Node{Kind: Lambda, Loc: expr.Range, Params: params, Variadic: variadic, Body: body}), nil
}

func (b *Builder) buildDefine(expr *sexpr.SExpr, topLevel bool) (*Node, error) {
	if !topLevel {
		return nil, badForm(expr.Range, "'define' is only legal at top level or in the top-level 'do' body")
	}
	operands := expr.Elements[1:]
	if len(operands) != 2 {
		return nil, badForm(expr.Range, "'define' expects a name and exactly one value expression")
	}
	nameExpr := operands[0]
	if nameExpr.Kind != sexpr.SymbolLexeme {
		return nil, badForm(nameExpr.Range, "'define' name must be a symbol")
	}
	valExpr, err := b.Build(operands[1], false)
	if err != nil {
		return nil, err
	}
	return b.newNode(Node{
		Kind: Define, Loc: expr.Range,
		Name:      token.Token{Kind: token.SYMBOL, Lexeme: nameExpr.Text, Range: nameExpr.Range},
		ValueExpr: valExpr,
	}), nil
}

func (b *Builder) buildQuote(expr *sexpr.SExpr) (*Node, error) {
	operands := expr.Elements[1:]
	if len(operands) != 1 {
		return nil, badForm(expr.Range, "'quote' expects exactly one operand")
	}
	return b.newNode(Node{Kind: Literal, Loc: expr.Range, Value: sexprToValue(operands[0])}), nil
}

// sexprToValue recursively materializes an s-expression into a constant
// value tree (list/symbol/string/number), per spec.md §4.4. It produces
// value.Value data, not *Node, so it doesn't go through the Builder's pool.
func sexprToValue(expr *sexpr.SExpr) value.Value {
	switch expr.Kind {
	case sexpr.NumberLexeme:
		return value.Num(expr.Num)
	case sexpr.StringLexeme:
		return value.Str(expr.Text)
	case sexpr.SymbolLexeme:
		switch expr.Text {
		case "true":
			return value.TrueValue
		case "false":
			return value.FalseValue
		case "nil":
			return value.NilValue
		default:
			return value.Sym(expr.Text)
		}
	case sexpr.ListExpr:
		elems := make([]value.Value, len(expr.Elements))
		for i, e := range expr.Elements {
			elems[i] = sexprToValue(e)
		}
		return value.List_(elems)
	default:
		return value.NilValue
	}
}
