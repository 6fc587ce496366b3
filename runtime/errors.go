package runtime

import (
	"fmt"

	"github.com/pkg/errors"

	"lip/ast"
	"lip/compiler"
	"lip/lexer"
	"lip/sexpr"
	"lip/token"
	"lip/vm"
)

// ErrorKind classifies a LipError across every phase of the pipeline, per
// spec.md §7's four phase-tagged error tables (LEX, PARSE, COMPILE,
// RUNTIME) collapsed into one enum so a host embedding lip can switch on
// a single type regardless of which phase raised it.
type ErrorKind int

const (
	UnknownEscape ErrorKind = iota
	UnterminatedString
	BadNumber
	UnexpectedToken
	UnterminatedList
	LexError
	BadSpecialForm
	UndefinedInLetrec
	CompileArityMismatch
	UnboundSymbol
	BadArgument
	ArityMismatch
	BadType
	StackOverflow
	Aborted
	UserError
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownEscape:
		return "UNKNOWN_ESCAPE"
	case UnterminatedString:
		return "UNTERMINATED_STRING"
	case BadNumber:
		return "BAD_NUMBER"
	case UnexpectedToken:
		return "UNEXPECTED_TOKEN"
	case UnterminatedList:
		return "UNTERMINATED_LIST"
	case LexError:
		return "LEX_ERROR"
	case BadSpecialForm:
		return "BAD_SPECIAL_FORM"
	case UndefinedInLetrec:
		return "UNDEFINED_IN_LETREC"
	case CompileArityMismatch, ArityMismatch:
		return "ARITY_MISMATCH"
	case UnboundSymbol:
		return "UNBOUND_SYMBOL"
	case BadArgument:
		return "BAD_ARGUMENT"
	case BadType:
		return "BAD_TYPE"
	case StackOverflow:
		return "STACK_OVERFLOW"
	case Aborted:
		return "ABORTED"
	case UserError:
		return "USER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// LipError is the error type Context.LoadScript returns for lexer,
// parser, AST-builder and compiler failures (VM.ExecScript returns its
// *vm.Error directly, not wrapped): a kind, a message, an optional source location,
// and an optional chained inner error (e.g. a LEX error wrapped by a
// PARSE error). Inner is always constructed through github.com/pkg/errors
// (errors.WithStack), so it carries a stack trace captured at the point
// the phase-specific error was lifted into a LipError. Unwrap lets
// callers use errors.Is/errors.As against the phase-specific error types
// below, not just this umbrella.
type LipError struct {
	Kind    ErrorKind
	Message string
	Loc     *token.Range
	Inner   error
}

func (e *LipError) Error() string {
	if e.Loc != nil {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Loc.Start.Line, e.Loc.Start.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LipError) Unwrap() error {
	return e.Inner
}

// wrapErr translates a phase-specific error (lexer.Error, sexpr.Error,
// ast.Error, compiler.Error, vm.Error) into a LipError, preserving the
// original as Inner. Any other error (e.g. from an io.Reader) passes
// through unwrapped, since it carries no lip-specific Kind.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *lexer.Error:
		rng := token.Range{Start: e.Loc, End: e.Loc}
		return &LipError{Kind: lexKind(e.Kind), Message: e.Error(), Loc: &rng, Inner: errors.WithStack(e)}
	case *sexpr.Error:
		rng := token.Range{Start: e.Loc, End: e.Loc}
		return &LipError{Kind: parseKind(e.Kind), Message: e.Error(), Loc: &rng, Inner: errors.WithStack(e)}
	case *ast.Error:
		return &LipError{Kind: BadSpecialForm, Message: e.Error(), Loc: &e.Loc, Inner: errors.WithStack(e)}
	case *compiler.Error:
		return &LipError{Kind: compileKind(e.Kind), Message: e.Error(), Loc: &e.Loc, Inner: errors.WithStack(e)}
	case *vm.Error:
		return &LipError{Kind: runtimeKind(e.Kind), Message: e.Error(), Loc: &e.Loc, Inner: errors.WithStack(e)}
	default:
		return err
	}
}

func lexKind(k lexer.ErrorKind) ErrorKind {
	switch k {
	case lexer.UnknownEscape:
		return UnknownEscape
	case lexer.UnterminatedString:
		return UnterminatedString
	case lexer.BadNumber:
		return BadNumber
	default:
		return LexError
	}
}

func parseKind(k sexpr.ErrorKind) ErrorKind {
	switch k {
	case sexpr.UnexpectedToken:
		return UnexpectedToken
	case sexpr.UnterminatedList:
		return UnterminatedList
	case sexpr.LexError:
		return LexError
	default:
		return UnexpectedToken
	}
}

func compileKind(k compiler.ErrorKind) ErrorKind {
	switch k {
	case compiler.BadSpecialForm:
		return BadSpecialForm
	case compiler.UndefinedInLetrec:
		return UndefinedInLetrec
	case compiler.ArityMismatch:
		return CompileArityMismatch
	case compiler.UnboundAtCompileTime:
		return UnboundSymbol
	default:
		return BadSpecialForm
	}
}

func runtimeKind(k vm.ErrorKind) ErrorKind {
	switch k {
	case vm.UnboundSymbol:
		return UnboundSymbol
	case vm.BadArgument:
		return BadArgument
	case vm.ArityMismatch:
		return ArityMismatch
	case vm.BadType:
		return BadType
	case vm.StackOverflow:
		return StackOverflow
	case vm.Aborted:
		return Aborted
	case vm.UserError:
		return UserError
	default:
		return BadType
	}
}
