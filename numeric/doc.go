// Package numeric implements an arbitrary-precision floating-point calculator.
//
// The syntax of expressions is intended to be similar to math you'd write in
// your notes, with maybe a few more spaces. "2 x y" is a multiplication of
// three terms. So is "{2}[x](y)" (although not "2 xy"). "-2^2^n" is the same
// as "-(2^(2^n))", where "a^b" is exponentiation.
//
// Beyond arithmetic, expressions may compare ("x <= 3", "a == b"), combine
// conditions ("a && !b"), and choose ("x > 0 ? x : -x", "a ?? b"). Every
// value is a number; conditions are 1 for true and 0 for false.
//
// Variables let you parse an expression once and evaluate it for many inputs,
// or you can clone contexts for several expressions to use the same variable
// definitions everywhere. Contexts may also resolve names on demand and
// replace the meaning of any operator or function, which is how package
// anyexpr carries values that are not numbers through this calculator.
package numeric
