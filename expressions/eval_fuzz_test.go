package expressions_test

import (
	"math/big"
	"testing"

	"github.com/zephyrtronium/uncertainty/expressions"
)

func FuzzEval(f *testing.F) {
	f.Add("x")
	f.Add("y")
	f.Add("1×2")
	f.Fuzz(func(t *testing.T, s string) {
		expressions.EvalString(s, expressions.SetVar("x", new(big.Float)))
	})
}

func FuzzDerivative(f *testing.F) {
	f.Add("x^2 y")
	f.Add("sin(x)/x")
	f.Add("log(x, 2x)")
	f.Fuzz(func(t *testing.T, s string) {
		a, err := expressions.ParseString(s)
		if err != nil {
			return
		}
		d, err := expressions.Derivative(a, "x")
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		expressions.NewContext(expressions.SetVar("x", big.NewFloat(0.5))).Eval(d)
	})
}
