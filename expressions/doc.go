// Package expressions parses, evaluates, and differentiates arithmetic
// expressions with arbitrary-precision floating-point numbers.
//
// The syntax of expressions is intended to be similar to math you'd write in
// your notes, with maybe a few more spaces. "2 x y" is a multiplication of
// three terms. So are "2x y" and "{2}[x](y)" (although not "2 xy"). "-2^2^n"
// is the same as "-(2^(2^n))", where "a^b" is exponentiation.
//
// Variables let you parse an expression once and evaluate it for many inputs,
// or you can clone contexts for several expressions to use the same variable
// definitions everywhere. A variable with the same name as a constant such as
// e or pi takes the place of the constant.
//
// Derivative produces the symbolic partial derivative of an expression with
// respect to one variable. The result is itself an expression which renders
// back to parseable text with String.
package expressions
