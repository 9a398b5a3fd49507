// Package anyexpr evaluates expressions whose values may be anything, not
// just numbers.
//
// Expressions use the grammar of package numeric. Names resolve to constants
// or to values supplied by callbacks at evaluation time, and those values may
// be strings, nil, booleans, or any other Go value. "4 + 5" is 9.0, and with
// foo bound to nil, "foo == nil ? 'bar' : foo" is "bar".
//
// Values that are not numbers travel through the numeric evaluator as
// placeholders from a Pool, and a fixed set of operators understands them:
// + concatenates strings, == and != compare any values, ?? picks the first
// value that isn't nil, and ?: chooses by truthiness. Every other operator or
// function requires numbers and fails with a TypeMismatchError or
// NilOperandError when given anything else.
//
// An Expression is parsed once and may be evaluated any number of times,
// including concurrently, as long as its callbacks allow it.
package anyexpr
