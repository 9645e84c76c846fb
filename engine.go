package uncertainty

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/zephyrtronium/uncertainty/expressions"
)

// Expression is a parsed or derived expression owned by an Engine.
type Expression interface {
	String() string
}

// Engine is the algebra capability used to parse, differentiate, render, and
// evaluate expressions. Expressions passed to an Engine must come from the
// same Engine.
type Engine interface {
	// Parse parses function text. Errors are *ParseError.
	Parse(text string) (Expression, error)
	// Derivative differentiates e with respect to the variable name. Errors
	// are *DifferentiationError.
	Derivative(e Expression, name string) (Expression, error)
	// Evaluate evaluates e with variables bound by env. Errors are
	// *EvaluationError.
	Evaluate(e Expression, env map[string]float64) (float64, error)
	// Text renders e so that parsing the result gives the same expression.
	Text(e Expression) string
	// Vars lists the variables e uses, sorted.
	Vars(e Expression) []string

	Constant(x float64) Expression
	Product(a, b Expression) Expression
	Sum(terms ...Expression) Expression
	Square(a Expression) Expression
	Sqrt(a Expression) Expression
	Abs(a Expression) Expression
}

// BigEngine is an Engine computing with big.Float.
type BigEngine struct {
	prec uint
}

// EngineOption configures a BigEngine.
type EngineOption func(*BigEngine)

// Precision sets the number of mantissa bits used in evaluation. Zero leaves
// the default of 64.
func Precision(bits uint) EngineOption {
	return func(e *BigEngine) {
		if bits > 0 {
			e.prec = bits
		}
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *BigEngine {
	e := BigEngine{prec: 64}
	for _, opt := range opts {
		opt(&e)
	}
	return &e
}

// Prec returns the evaluation precision in bits.
func (eng *BigEngine) Prec() uint {
	return eng.prec
}

func expr(e Expression) *expressions.Expr {
	x, ok := e.(*expressions.Expr)
	if !ok {
		panic(errors.Errorf("uncertainty: %T is not an expression from BigEngine", e))
	}
	return x
}

func (eng *BigEngine) Parse(text string) (Expression, error) {
	x, err := expressions.ParseString(text)
	if err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}
	return x, nil
}

func (eng *BigEngine) Derivative(e Expression, name string) (Expression, error) {
	d, err := expressions.Derivative(expr(e), name)
	if err != nil {
		return nil, &DifferentiationError{Variable: name, Err: err}
	}
	return d, nil
}

func (eng *BigEngine) Evaluate(e Expression, env map[string]float64) (float64, error) {
	vars := make(map[string]*big.Float, len(env))
	for k, v := range env {
		if math.IsNaN(v) {
			return 0, &EvaluationError{Err: errors.Errorf("variable %q is NaN", k)}
		}
		vars[k] = big.NewFloat(v)
	}
	ctx := expressions.NewContext(expressions.Prec(eng.prec), expressions.SetVars(vars))
	r := ctx.Eval(expr(e))
	if r == nil {
		return 0, &EvaluationError{Err: ctx.Err()}
	}
	f, _ := r.Float64()
	if math.IsInf(f, 0) {
		return 0, &EvaluationError{Err: errors.Wrapf(ErrNonFinite, "%v", r)}
	}
	return f, nil
}

func (eng *BigEngine) Text(e Expression) string {
	return expr(e).String()
}

func (eng *BigEngine) Vars(e Expression) []string {
	return expr(e).Vars()
}

func (eng *BigEngine) Constant(x float64) Expression {
	return expressions.Num(x)
}

func (eng *BigEngine) Product(a, b Expression) Expression {
	return expressions.Product(expr(a), expr(b))
}

func (eng *BigEngine) Sum(terms ...Expression) Expression {
	xs := make([]*expressions.Expr, len(terms))
	for i, t := range terms {
		xs[i] = expr(t)
	}
	return expressions.Sum(xs...)
}

func (eng *BigEngine) Square(a Expression) Expression {
	return expressions.Power(expr(a), expressions.Num(2))
}

func (eng *BigEngine) Sqrt(a Expression) Expression {
	return eng.apply("sqrt", a)
}

func (eng *BigEngine) Abs(a Expression) Expression {
	return eng.apply("abs", a)
}

func (eng *BigEngine) apply(name string, a Expression) Expression {
	r, err := expressions.Apply(name, expr(a))
	if err != nil {
		// Only happens if the default functions change.
		panic(err)
	}
	return r
}

var _ Engine = (*BigEngine)(nil)
