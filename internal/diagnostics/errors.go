package diagnostics

import (
	"errors"
	"fmt"

	"github.com/funvibe/malgeul/internal/token"
)

type ErrorCode string

// Category groups error codes by the stage that detects them.
type Category int

const (
	SyntaxError Category = iota
	TypeError
	RuntimeError
	InternalError
)

func (c Category) String() string {
	switch c {
	case SyntaxError:
		return "syntax error"
	case TypeError:
		return "type error"
	case RuntimeError:
		return "runtime error"
	}
	return "internal error"
}

const (
	// Syntax
	ErrS001 ErrorCode = "S001" // ambiguous window
	ErrS002 ErrorCode = "S002" // sentence does not reduce to one tree
	ErrS003 ErrorCode = "S003" // malformed pattern definition
	ErrS004 ErrorCode = "S004" // bad sentence or comma structure
	ErrS005 ErrorCode = "S005" // unknown word
	ErrS006 ErrorCode = "S006" // synonym cycle
	ErrS007 ErrorCode = "S007" // malformed directive

	// Type
	ErrT001 ErrorCode = "T001" // same key, different output part-of-speech
	ErrT002 ErrorCode = "T002" // inconsistent signature

	// Runtime
	ErrR001 ErrorCode = "R001" // no matching signature
	ErrR002 ErrorCode = "R002" // ambiguous dispatch
	ErrR003 ErrorCode = "R003" // uninitialized variable
	ErrR004 ErrorCode = "R004" // missing antecedent
	ErrR005 ErrorCode = "R005" // arithmetic
	ErrR006 ErrorCode = "R006" // module load

	// Internal
	ErrI001 ErrorCode = "I001"
)

var messages = map[ErrorCode]string{
	ErrS001: "ambiguous phrase %s: matches %s",
	ErrS002: "sentence does not reduce to a single phrase: %s",
	ErrS003: "malformed pattern %q: %s",
	ErrS004: "%s",
	ErrS005: "unknown word %q%s",
	ErrS006: "synonym cycle: %s",
	ErrS007: "malformed directive %q: %s",
	ErrT001: "pattern %s declares conflicting outputs %s",
	ErrT002: "inconsistent signature for %s: %s",
	ErrR001: "no procedure for %s accepts (%s)%s",
	ErrR002: "ambiguous call to %s with (%s): candidates %s",
	ErrR003: "variable %s is read before assignment",
	ErrR004: "%s requires an antecedent but none is available",
	ErrR005: "%s",
	ErrR006: "%s",
	ErrI001: "internal error: %s",
}

var categories = map[byte]Category{
	'S': SyntaxError,
	'T': TypeError,
	'R': RuntimeError,
	'I': InternalError,
}

// DiagnosticError is an error with a code and an optional source location.
type DiagnosticError struct {
	Code  ErrorCode
	Token token.Token
	Args  []interface{}
	File  string
}

func NewError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Args: args}
}

func (e *DiagnosticError) Category() Category {
	if len(e.Code) == 0 {
		return InternalError
	}
	if c, ok := categories[e.Code[0]]; ok {
		return c
	}
	return InternalError
}

// Message is the formatted text without location prefix.
func (e *DiagnosticError) Message() string {
	format, ok := messages[e.Code]
	if !ok {
		return fmt.Sprint(e.Args...)
	}
	return fmt.Sprintf(format, e.Args...)
}

func (e *DiagnosticError) Error() string {
	loc := e.File
	if pos := e.Token.Pos(); pos != "" {
		if loc != "" {
			loc += ":"
		}
		loc += pos
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s [%s]: %s", loc, e.Category(), e.Code, e.Message())
	}
	return fmt.Sprintf("%s [%s]: %s", e.Category(), e.Code, e.Message())
}

// At attaches a location if the error does not carry one yet.
func (e *DiagnosticError) At(tok token.Token) *DiagnosticError {
	if e.Token.Line == 0 {
		e.Token = tok
	}
	return e
}

// As extracts a DiagnosticError from an error chain.
func As(err error) (*DiagnosticError, bool) {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Wrap converts an arbitrary error into a DiagnosticError, keeping existing ones.
func Wrap(err error, code ErrorCode) *DiagnosticError {
	if de, ok := As(err); ok {
		return de
	}
	return NewError(code, token.Token{}, err.Error())
}
