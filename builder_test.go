package uncertainty_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/uncertainty"
)

// fakeExpr is an expression in a fake engine that only composes text.
type fakeExpr string

func (e fakeExpr) String() string { return string(e) }

// fakeEngine records derivatives symbolically so that the shape of built
// expressions is visible.
type fakeEngine struct {
	fail map[string]error
}

func (f fakeEngine) Parse(text string) (uncertainty.Expression, error) {
	return fakeExpr(text), nil
}

func (f fakeEngine) Derivative(e uncertainty.Expression, name string) (uncertainty.Expression, error) {
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return fakeExpr("d" + e.String() + "/d" + name), nil
}

func (f fakeEngine) Evaluate(e uncertainty.Expression, env map[string]float64) (float64, error) {
	return 0, errors.New("fake engine cannot evaluate")
}

func (f fakeEngine) Text(e uncertainty.Expression) string { return e.String() }
func (f fakeEngine) Vars(e uncertainty.Expression) []string { return nil }

func (f fakeEngine) Constant(x float64) uncertainty.Expression {
	return fakeExpr(strconv.FormatFloat(x, 'g', -1, 64))
}

func (f fakeEngine) Product(a, b uncertainty.Expression) uncertainty.Expression {
	return fakeExpr(a.String() + "*" + b.String())
}

func (f fakeEngine) Sum(terms ...uncertainty.Expression) uncertainty.Expression {
	s := make([]string, len(terms))
	for i, t := range terms {
		s[i] = t.String()
	}
	return fakeExpr(strings.Join(s, "+"))
}

func (f fakeEngine) Square(a uncertainty.Expression) uncertainty.Expression {
	return fakeExpr("sq[" + a.String() + "]")
}

func (f fakeEngine) Sqrt(a uncertainty.Expression) uncertainty.Expression {
	return fakeExpr("sqrt[" + a.String() + "]")
}

func (f fakeEngine) Abs(a uncertainty.Expression) uncertainty.Expression {
	return fakeExpr("abs[" + a.String() + "]")
}

func TestBuilderShapes(t *testing.T) {
	x := uncertainty.Variable{Name: "x", Value: 1, Uncertainty: 0.1}
	y := uncertainty.Variable{Name: "y", Value: 2, Uncertainty: 0.2}
	z := uncertainty.Variable{Name: "z", Value: 3, Uncertainty: 0.3}
	cases := []struct {
		name string
		vars []uncertainty.Variable
		opts []uncertainty.BuilderOption
		want string
	}{
		{"none", nil, nil, "0"},
		{"one", []uncertainty.Variable{x}, nil, "abs[0.1*df/dx]"},
		{"one-signed", []uncertainty.Variable{x}, []uncertainty.BuilderOption{uncertainty.WithSignedSingleTerm()}, "0.1*df/dx"},
		{"two", []uncertainty.Variable{x, y}, nil, "sqrt[sq[0.1*df/dx]+sq[0.2*df/dy]]"},
		{"two-signed", []uncertainty.Variable{x, y}, []uncertainty.BuilderOption{uncertainty.WithSignedSingleTerm()}, "sqrt[sq[0.1*df/dx]+sq[0.2*df/dy]]"},
		{"three", []uncertainty.Variable{x, y, z}, nil, "sqrt[sq[0.1*df/dx]+sq[0.2*df/dy]+sq[0.3*df/dz]]"},
		{"order", []uncertainty.Variable{z, x}, nil, "sqrt[sq[0.3*df/dz]+sq[0.1*df/dx]]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := uncertainty.NewBuilder(fakeEngine{}, c.opts...)
			u, err := b.Build(fakeExpr("f"), c.vars)
			require.NoError(t, err)
			assert.Equal(t, c.want, u.String())
		})
	}
}

func TestBuilderDeterministic(t *testing.T) {
	vars := []uncertainty.Variable{{Name: "a", Uncertainty: 1}, {Name: "b", Uncertainty: 2}}
	b := uncertainty.NewBuilder(uncertainty.NewEngine())
	f, err := uncertainty.NewEngine().Parse("a^2 b + exp(b)")
	require.NoError(t, err)
	u1, err := b.Build(f, vars)
	require.NoError(t, err)
	u2, err := b.Build(f, vars)
	require.NoError(t, err)
	assert.Equal(t, u1.String(), u2.String())
}

func TestBuilderDifferentiationError(t *testing.T) {
	cause := errors.New("no rule")
	b := uncertainty.NewBuilder(fakeEngine{fail: map[string]error{"y": cause}})
	vars := []uncertainty.Variable{{Name: "x"}, {Name: "y"}}
	u, err := b.Build(fakeExpr("f"), vars)
	assert.Nil(t, u)
	var de *uncertainty.DifferentiationError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "y", de.Variable)
	assert.ErrorIs(t, err, cause)
}
