package expressions

import (
	"errors"
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function from reals to reals. Functions may but generally should
// not look up variables. The function should set r to its result and should
// not use the value of r otherwise.
type Func interface {
	// Call evaluates the function. The function arguments are passed in invoc.
	// The function may but generally should not look up variables. The
	// function must set r to its result and should not use the value of r
	// otherwise. invoc has a length for which CanCall returned true. Call may
	// modify the elements of invoc.
	Call(ctx *Context, invoc []*big.Float, r *big.Float) error

	// CanCall returns whether the function can be called with n arguments.
	// This controls how the expression parser handles instances of this
	// function:
	//
	// 	1.	If a bracketed list of n > 0 expressions follows a function, the
	//		parser treats it as an argument list if CanCall(n). (If n is 1 and
	//		!CanCall(1) and CanCall(0), then the list is a multiplication;
	//		otherwise, it is rejected.)
	//
	// 	2.	If a bare term follows a function and CanCall(1), then the parser
	//		treats the term as an argument to the function. E.g., "exp x" is
	//		parsed as "exp(x)". (If !CanCall(1), then it is a multiplication.)
	CanCall(n int) bool
}

// builtin marks a default function. Only builtins have derivative rules.
type builtin struct {
	Func
	name string
}

var globalfuncs = builtins(map[string]Func{
	"exp":   Monadic("exp", bigfloat.Exp),
	"ln":    Monadic("ln", positive(bigfloat.Log)),
	"log":   logfn{},
	"log10": Monadic("log10", logbase(10)),
	"log2":  Monadic("log2", logbase(2)),
	"sqrt":  Monadic("sqrt", nonnegative((*big.Float).Sqrt)),
	"abs":   Monadic("abs", (*big.Float).Abs),

	// trig, computed in float64 because dependencies lack them
	"cos":   Float64("cos", math.Cos),
	"sin":   Float64("sin", math.Sin),
	"tan":   Float64("tan", math.Tan),
	"acos":  Float64("acos", math.Acos),
	"asin":  Float64("asin", math.Asin),
	"atan":  Float64("atan", math.Atan),
	"cosh":  Float64("cosh", math.Cosh),
	"sinh":  Float64("sinh", math.Sinh),
	"tanh":  Float64("tanh", math.Tanh),
	"acosh": Float64("acosh", math.Acosh),
	"asinh": Float64("asinh", math.Asinh),
	"atanh": Float64("atanh", math.Atanh),

	// constants
	"pi": Niladic(bigfloat.Pi),
	"e": Niladic(func(out *big.Float) *big.Float {
		one := new(big.Float).SetPrec(out.Prec()).SetInt64(1)
		return bigfloat.Exp(out, one)
	}),
})

func builtins(m map[string]Func) map[string]Func {
	for k, v := range m {
		m[k] = builtin{Func: v, name: k}
	}
	return m
}

// DefaultFuncs returns the names of the functions and constants available to
// every parse unless disabled.
func DefaultFuncs() []string {
	r := make([]string, 0, len(globalfuncs))
	for k := range globalfuncs {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

type monadic struct {
	name string
	f    func(out, in *big.Float) *big.Float
}

func (m monadic) Call(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	in := invoc[0]
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		err = p.(error) // panic if not error
		var de *DomainError
		switch {
		case errors.As(err, &de):
			de.Func, de.Arg = m.name, 1
		case errors.As(err, new(big.ErrNaN)):
			err = &DomainError{X: new(big.Float).Copy(in), Arg: 1, Func: m.name}
		default:
			panic(err)
		}
	}()
	r.SetPrec(ctx.Prec())
	m.f(r, in)
	return nil
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func. f must set out to its
// result, to the precision of out; its return value is always ignored. If f is
// called on an argument outside f's domain, it should panic with a
// *DomainError or an error of type big.ErrNaN, or that unwraps to either.
// name identifies the function in errors.
func Monadic(name string, f func(out, in *big.Float) *big.Float) Func {
	return monadic{name: name, f: f}
}

type niladic struct {
	f func(out *big.Float) *big.Float
}

func (n niladic) Call(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	r.SetPrec(ctx.Prec())
	n.f(r)
	return nil
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func. f must set out to its result; its return
// value is always ignored. Unlike Monadic, the wrapped function is expected
// never to panic.
func Niladic(f func(out *big.Float) *big.Float) Func {
	return niladic{f}
}

type float64fn struct {
	name string
	f    func(float64) float64
}

func (f float64fn) Call(ctx *Context, invoc []*big.Float, r *big.Float) error {
	x, _ := invoc[0].Float64()
	y := f.f(x)
	if math.IsNaN(y) || math.IsInf(y, 0) && !math.IsInf(x, 0) {
		return &DomainError{X: new(big.Float).Copy(invoc[0]), Arg: 1, Func: f.name}
	}
	r.SetPrec(ctx.Prec()).SetFloat64(y)
	return nil
}

func (f float64fn) CanCall(n int) bool {
	return n == 1
}

// Float64 wraps a function of one float64 into a Func. The result has only
// float64 precision regardless of the context. Results that are NaN, or
// infinite for a finite argument, are domain errors.
func Float64(name string, f func(float64) float64) Func {
	return float64fn{name: name, f: f}
}

// logfn is the natural logarithm with one argument and the logarithm to a
// given base with two.
type logfn struct{}

func (logfn) Call(ctx *Context, invoc []*big.Float, r *big.Float) error {
	x := invoc[0]
	if x.Sign() <= 0 {
		return &DomainError{X: new(big.Float).Copy(x), Arg: 1, Func: "log"}
	}
	r.SetPrec(ctx.Prec())
	bigfloat.Log(r, x)
	if len(invoc) == 1 {
		return nil
	}
	b := invoc[1]
	if b.Sign() <= 0 || b.Cmp(one) == 0 {
		return &DomainError{X: new(big.Float).Copy(b), Arg: 2, Func: "log"}
	}
	d := new(big.Float).SetPrec(ctx.Prec())
	bigfloat.Log(d, b)
	r.Quo(r, d)
	return nil
}

func (logfn) CanCall(n int) bool {
	return n == 1 || n == 2
}

var one = big.NewFloat(1)

// positive restricts f to positive arguments.
func positive(f func(out, in *big.Float) *big.Float) func(out, in *big.Float) *big.Float {
	return func(out, in *big.Float) *big.Float {
		if in.Sign() <= 0 {
			panic(&DomainError{X: new(big.Float).Copy(in)})
		}
		return f(out, in)
	}
}

// nonnegative restricts f to non-negative arguments.
func nonnegative(f func(out, in *big.Float) *big.Float) func(out, in *big.Float) *big.Float {
	return func(out, in *big.Float) *big.Float {
		if in.Sign() < 0 {
			panic(&DomainError{X: new(big.Float).Copy(in)})
		}
		return f(out, in)
	}
}

// logbase creates a logarithm to a fixed base.
func logbase(base int64) func(out, in *big.Float) *big.Float {
	return positive(func(out, in *big.Float) *big.Float {
		bigfloat.Log(out, in)
		d := new(big.Float).SetPrec(out.Prec()).SetInt64(base)
		bigfloat.Log(d, d)
		return out.Quo(out, d)
	})
}
