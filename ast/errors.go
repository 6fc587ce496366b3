package ast

import (
	"fmt"

	"lip/token"
)

// ErrorKind classifies an AST-builder error. These map onto spec.md §7's
// COMPILE error kind (BAD_SPECIAL_FORM); UNDEFINED_IN_LETREC is reported
// by the compiler, not here, since it requires scope information the AST
// builder does not have. No compile phase reports ARITY_MISMATCH: the
// compiler declares that kind but never raises it, and arity is checked
// only at run time by the VM.
type ErrorKind int

const (
	BadSpecialForm ErrorKind = iota
)

// Error is a validation failure raised while building the AST, carrying
// the offending s-expression's source location (spec.md §4.4).
type Error struct {
	Kind    ErrorKind
	Message string
	Loc     token.Range
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d, column %d: %s", "bad special form", e.Loc.Start.Line, e.Loc.Start.Column, e.Message)
}

func badForm(loc token.Range, format string, args ...any) error {
	return &Error{Kind: BadSpecialForm, Message: fmt.Sprintf(format, args...), Loc: loc}
}
