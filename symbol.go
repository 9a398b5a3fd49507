package anyexpr

import "github.com/zephyrtronium/anyexpr/numeric"

// Symbol identifies a variable, function, or operator that an expression
// references.
type Symbol = numeric.Symbol

// Variable returns the symbol for a variable.
func Variable(name string) Symbol {
	return numeric.Variable(name)
}

// Function returns the symbol for a call of a function with n arguments.
func Function(name string, n int) Symbol {
	return numeric.Function(name, n)
}

// Infix returns the symbol for a binary operator. The conditional is "?:".
func Infix(op string) Symbol {
	return numeric.Infix(op)
}

// Prefix returns the symbol for a unary operator.
func Prefix(op string) Symbol {
	return numeric.Prefix(op)
}

// reserved names always resolve to the same values.
var reserved = map[string]int{
	"nil":   keyNil,
	"false": keyFalse,
	"true":  keyTrue,
}

// literal reports whether a variable name is a literal value in the source
// rather than a reference to outside state.
func literal(name string) bool {
	if _, ok := reserved[name]; ok {
		return true
	}
	_, ok := numeric.Unquote(name)
	return ok
}
