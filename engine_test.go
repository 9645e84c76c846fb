package uncertainty_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/uncertainty"
	"github.com/zephyrtronium/uncertainty/expressions"
)

func TestEngineParse(t *testing.T) {
	eng := uncertainty.NewEngine()
	e, err := eng.Parse("2x + sin(y)")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, eng.Vars(e))
	assert.Equal(t, "2 * x + sin(y)", eng.Text(e))

	_, err = eng.Parse("(x + 1")
	var pe *uncertainty.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "(x + 1", pe.Text)
	assert.Positive(t, pe.Pos())
	var be *expressions.BracketError
	assert.ErrorAs(t, err, &be)
}

func TestEngineEvaluate(t *testing.T) {
	eng := uncertainty.NewEngine()
	e, err := eng.Parse("x^2 - y")
	require.NoError(t, err)
	x, err := eng.Evaluate(e, map[string]float64{"x": 3, "y": 1})
	require.NoError(t, err)
	assert.Equal(t, 8.0, x)

	_, err = eng.Evaluate(e, map[string]float64{"x": 3})
	var ee *uncertainty.EvaluationError
	require.ErrorAs(t, err, &ee)
	var ne *expressions.NameError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "y", ne.Name)

	_, err = eng.Evaluate(e, map[string]float64{"x": math.NaN(), "y": 1})
	assert.ErrorAs(t, err, &ee)

	l, err := eng.Parse("ln(x)")
	require.NoError(t, err)
	_, err = eng.Evaluate(l, map[string]float64{"x": -1})
	var de *expressions.DomainError
	assert.ErrorAs(t, err, &de)
}

func TestEnginePrecision(t *testing.T) {
	assert.EqualValues(t, 64, uncertainty.NewEngine().Prec())
	assert.EqualValues(t, 64, uncertainty.NewEngine(uncertainty.Precision(0)).Prec())
	eng := uncertainty.NewEngine(uncertainty.Precision(200))
	assert.EqualValues(t, 200, eng.Prec())
	e, err := eng.Parse("(1 + x) - 1")
	require.NoError(t, err)
	// At 200 bits, 1e-30 survives being added to 1.
	r, err := eng.Evaluate(e, map[string]float64{"x": 1e-30})
	require.NoError(t, err)
	assert.InEpsilon(t, 1e-30, r, 1e-9)
}

func TestEngineConstructors(t *testing.T) {
	eng := uncertainty.NewEngine()
	x, err := eng.Parse("x")
	require.NoError(t, err)
	cases := []struct {
		name string
		e    uncertainty.Expression
		want string
	}{
		{"constant", eng.Constant(0.25), "0.25"},
		{"product", eng.Product(eng.Constant(3), x), "3 * x"},
		{"sum", eng.Sum(x, eng.Constant(1)), "x + 1"},
		{"sum-empty", eng.Sum(), "0"},
		{"square", eng.Square(x), "x ^ 2"},
		{"sqrt", eng.Sqrt(x), "sqrt(x)"},
		{"abs", eng.Abs(x), "abs(x)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, eng.Text(c.e))
		})
	}
}

func TestEngineForeignExpression(t *testing.T) {
	eng := uncertainty.NewEngine()
	assert.Panics(t, func() { eng.Text(fakeExpr("x")) })
}
