// Package karmerr defines the errors reported by the Karm front end.
package karmerr

import (
	"errors"
	"fmt"
	"strings"

	"karmlang/karm/internal/token"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSyntax ErrorType = "SyntaxError"
	TypeType   ErrorType = "TypeError"
)

// ErrEmptyProgram is returned when a program is requested from a source
// that holds no tokens at all. It terminates the compilation.
var ErrEmptyProgram = errors.New("program terminated: lookahead is empty, nothing to parse")

// KarmError is the interface for all Karm diagnostics.
type KarmError interface {
	error
	Type() ErrorType
	Position() (line, column int)
}

// BaseError provides common fields for Karm errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
	Line    int
	Column  int
}

func (e *BaseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

func (e *BaseError) Position() (int, int) {
	return e.Line, e.Column
}

// SyntaxError is raised by the parser when the lookahead does not match a
// grammar expectation. Got is token.EOF when the stream was exhausted.
type SyntaxError struct {
	BaseError
	Expected []token.Kind
	Got      token.Kind
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.describe())
}

func (e *SyntaxError) describe() string {
	got := "end of input"
	if e.Got != token.EOF {
		got = e.Got.String()
	}

	var sb strings.Builder
	switch len(e.Expected) {
	case 0:
		sb.WriteString("unexpected " + got)
	case 1:
		sb.WriteString(fmt.Sprintf("expected %s, got %s", e.Expected[0], got))
	default:
		names := make([]string, len(e.Expected))
		for i, k := range e.Expected {
			names[i] = k.String()
		}
		sb.WriteString(fmt.Sprintf("expected one of %s, got %s", strings.Join(names, ", "), got))
	}
	if e.Msg != "" {
		sb.WriteString(": " + e.Msg)
	}
	return sb.String()
}

// NewSyntaxError creates a SyntaxError at the given position.
func NewSyntaxError(line, column int, expected []token.Kind, got token.Kind) *SyntaxError {
	return &SyntaxError{
		BaseError: BaseError{
			ErrType: TypeSyntax,
			Line:    line,
			Column:  column,
		},
		Expected: expected,
		Got:      got,
	}
}

// TypeRule names the inference rule a TypeError comes from.
type TypeRule int

const (
	RuleMismatch TypeRule = iota + 1
	RuleNotApplicable
	RuleInconsistent
	RuleNonBoolCondition
	RuleDivergentBranches
	RuleArity
	RuleUndefinedFunction
	RuleUndefinedIdent
	RuleArgumentMismatch
)

var ruleMessages = map[TypeRule]string{
	RuleMismatch:          "type mismatch between operands",
	RuleNotApplicable:     "operator not applicable to operand type",
	RuleInconsistent:      "identifier used inconsistently",
	RuleNonBoolCondition:  "condition must be boolean",
	RuleDivergentBranches: "branches return different types",
	RuleArity:             "wrong number of arguments",
	RuleUndefinedFunction: "undefined function",
	RuleUndefinedIdent:    "undefined identifier",
	RuleArgumentMismatch:  "argument type mismatch",
}

func (r TypeRule) String() string {
	if msg, ok := ruleMessages[r]; ok {
		return msg
	}
	return fmt.Sprintf("TypeRule(%d)", int(r))
}

// TypeError is raised by the type checker when narrowing leaves no
// satisfying assignment.
type TypeError struct {
	BaseError
	Rule TypeRule
	Def  string // Top-level definition being checked, if known
}

func (e *TypeError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", e.ErrType))
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d:%d ", e.Line, e.Column))
	}
	if e.Def != "" {
		sb.WriteString(fmt.Sprintf("in '%s': ", e.Def))
	}
	sb.WriteString(e.Msg)
	return sb.String()
}

// NewTypeError creates a TypeError for rule. Detail, when given, is
// appended to the rule's message.
func NewTypeError(rule TypeRule, detail string) *TypeError {
	msg := rule.String()
	if detail != "" {
		msg += ": " + detail
	}
	return &TypeError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeType,
		},
		Rule: rule,
	}
}

// NewTypeErrorAt creates a TypeError with line and column position.
func NewTypeErrorAt(line, column int, rule TypeRule, detail string) *TypeError {
	err := NewTypeError(rule, detail)
	err.Line = line
	err.Column = column
	return err
}

// MultiError collects multiple Karm errors.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Type() ErrorType {
	if len(m.Errors) > 0 {
		var ke KarmError
		if errors.As(m.Errors[0], &ke) {
			return ke.Type()
		}
	}
	return "MultiError"
}

// Unwrap lets errors.Is and errors.As see the collected errors.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Is reports whether err is a Karm error of the given type.
func Is(err error, t ErrorType) bool {
	var ke KarmError
	return errors.As(err, &ke) && ke.Type() == t
}
