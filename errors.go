package anyexpr

import (
	"strconv"
	"strings"
)

// ParseError is an error from parsing an expression's source.
type ParseError struct {
	// Src is the source that failed to parse.
	Src string
	// Err is the error from the parser. It is usually a numeric.InputError.
	Err error
}

func (err *ParseError) Error() string {
	return "parsing " + strconv.Quote(err.Src) + ": " + err.Err.Error()
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// EvaluationError is an error identifying the symbol whose evaluation failed.
// Errors that Evaluate detects itself implement EvaluationError. Errors from
// numeric functions, such as *numeric.DomainError, are returned unchanged.
type EvaluationError interface {
	error
	// Symbol returns the symbol that caused the error.
	Symbol() Symbol
}

// UnboundSymbolError is an error for a symbol that no constant, symbol
// function, or resolver answers.
type UnboundSymbolError struct {
	Sym Symbol
}

func (err *UnboundSymbolError) Error() string {
	return "unbound symbol " + err.Sym.String()
}

func (err *UnboundSymbolError) Symbol() Symbol {
	return err.Sym
}

// NilOperandError is an error for a nil operand to an operator or function
// that cannot accept nil. Only ==, !=, ??, and ?: accept nil.
type NilOperandError struct {
	Sym Symbol
}

func (err *NilOperandError) Error() string {
	return "nil operand to " + err.Sym.String()
}

func (err *NilOperandError) Symbol() Symbol {
	return err.Sym
}

// TypeMismatchError is an error for operands whose types an operator cannot
// combine.
type TypeMismatchError struct {
	Sym Symbol
	// Types lists the operand types in order. Numbers are "number".
	Types []string
}

func (err *TypeMismatchError) Error() string {
	return "mismatched types for " + err.Sym.String() + ": " + strings.Join(err.Types, ", ")
}

func (err *TypeMismatchError) Symbol() Symbol {
	return err.Sym
}

// CallError wraps an error returned from a symbol function or resolver.
type CallError struct {
	Sym Symbol
	Err error
}

func (err *CallError) Error() string {
	return "evaluating " + err.Sym.String() + ": " + err.Err.Error()
}

func (err *CallError) Symbol() Symbol {
	return err.Sym
}

func (err *CallError) Unwrap() error {
	return err.Err
}

// PoolIntegrityError is the panic value when a placeholder has no value in
// its pool. It is never returned as an error.
type PoolIntegrityError struct {
	Key int
}

func (err *PoolIntegrityError) Error() string {
	return "anyexpr: no value for placeholder key " + strconv.Itoa(err.Key)
}

var (
	_ EvaluationError = (*UnboundSymbolError)(nil)
	_ EvaluationError = (*NilOperandError)(nil)
	_ EvaluationError = (*TypeMismatchError)(nil)
	_ EvaluationError = (*CallError)(nil)
)
