package sexpr

import (
	"fmt"

	"github.com/pkg/errors"

	"lip/arena"
	"lip/lexer"
	"lip/token"
)

// ErrorKind classifies a parser error, per spec.md §4.3/§7.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	UnterminatedList
	LexError
)

// Error is a parser-level error; it may wrap a lexer.Error (LexError).
// Inner, when set, is always constructed via errors.WithStack so the
// wrapped error keeps a stack trace from the point it was lifted here.
type Error struct {
	Kind    ErrorKind
	Message string
	Loc     token.Location
	Inner   error
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("parse error at line %d, column %d: %s: %v", e.Loc.Line, e.Loc.Column, e.Message, e.Inner)
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Loc.Line, e.Loc.Column, e.Message)
}

func (e *Error) Unwrap() error { return e.Inner }

// Parser converts a lexer's token stream into SExpr trees. Each call to
// Read allocates its result out of the Parser's arena; the arena is reset
// before each top-level read begins, so a previously returned tree must be
// consumed (e.g. translated to AST) before the next Read call.
type Parser struct {
	lex   *lexer.Lexer
	nodes *arena.Pool[SExpr]
}

// New creates a Parser scanning tokens from lex.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lex: lex, nodes: arena.NewPool[SExpr](64)}
}

func (p *Parser) alloc(kind Kind, text string, num float64, rng token.Range) *SExpr {
	n := p.nodes.Alloc()
	n.Kind = kind
	n.Text = text
	n.Num = num
	n.Range = rng
	return n
}

// AtEOF reports whether the underlying token stream is exhausted.
func (p *Parser) AtEOF() (bool, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return false, wrapLexErr(err)
	}
	return tok.Kind == token.EOF, nil
}

// Read parses and returns the next top-level s-expression, or nil, nil at
// end of input. It resets the parser's arena first, invalidating any
// s-expression tree returned by a previous Read call.
func (p *Parser) Read() (*SExpr, error) {
	p.nodes.Reset()

	atEOF, err := p.AtEOF()
	if err != nil {
		return nil, err
	}
	if atEOF {
		return nil, nil
	}
	return p.readExpr()
}

func wrapLexErr(err error) error {
	lexErr, ok := err.(*lexer.Error)
	if !ok {
		return err
	}
	return &Error{Kind: LexError, Message: "lexical error", Loc: lexErr.Loc, Inner: errors.WithStack(lexErr)}
}

func (p *Parser) readExpr() (*SExpr, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, wrapLexErr(err)
	}

	switch tok.Kind {
	case token.LPAREN:
		return p.readList(tok)
	case token.RPAREN:
		return nil, &Error{Kind: UnexpectedToken, Message: "unexpected ')'", Loc: tok.Range.Start}
	case token.NUMBER:
		return p.alloc(NumberLexeme, tok.Lexeme, tok.Literal.(float64), tok.Range), nil
	case token.STRING:
		return p.alloc(StringLexeme, tok.Literal.(string), 0, tok.Range), nil
	case token.SYMBOL:
		return p.alloc(SymbolLexeme, tok.Lexeme, 0, tok.Range), nil
	case token.QUOTE, token.QUASIQUOTE, token.UNQUOTE, token.UNQUOTE_SPLICING:
		return p.readReaderMacro(tok)
	case token.EOF:
		return nil, &Error{Kind: UnexpectedToken, Message: "unexpected end of input", Loc: tok.Range.Start}
	default:
		return nil, &Error{Kind: UnexpectedToken, Message: fmt.Sprintf("unexpected token %q", tok.Lexeme), Loc: tok.Range.Start}
	}
}

func (p *Parser) readList(open token.Token) (*SExpr, error) {
	var elems []*SExpr
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, wrapLexErr(err)
		}
		if tok.Kind == token.RPAREN {
			p.lex.Next()
			return p.alloc(ListExpr, "", 0, token.Range{Start: open.Range.Start, End: tok.Range.End}).withElems(elems), nil
		}
		if tok.Kind == token.EOF {
			return nil, &Error{Kind: UnterminatedList, Message: "unterminated list", Loc: open.Range.Start}
		}
		elem, err := p.readExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
}

func (n *SExpr) withElems(elems []*SExpr) *SExpr {
	n.Elements = elems
	return n
}

// readReaderMacro consumes the next s-expression and wraps it as
// (<symbol> <expr>), per spec.md §4.3.
func (p *Parser) readReaderMacro(macro token.Token) (*SExpr, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, wrapLexErr(err)
	}
	if tok.Kind == token.EOF {
		return nil, &Error{Kind: UnexpectedToken, Message: "unexpected end of input after reader macro", Loc: macro.Range.Start}
	}
	inner, err := p.readExpr()
	if err != nil {
		return nil, err
	}
	sym := token.ReaderMacroSymbol[macro.Kind]
	head := p.alloc(SymbolLexeme, sym, 0, macro.Range)
	rng := token.Range{Start: macro.Range.Start, End: inner.Range.End}
	return p.alloc(ListExpr, "", 0, rng).withElems([]*SExpr{head, inner}), nil
}
