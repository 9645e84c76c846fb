package uncertainty

import "github.com/pkg/errors"

// Result is the numeric outcome of evaluating a function and its uncertainty.
// Each field is computed independently; an error in one leaves the other
// intact.
type Result struct {
	Value          float64
	Uncertainty    float64
	ValueErr       error
	UncertaintyErr error
}

// Evaluate evaluates f and u with the nominal values in reg. Errors are
// *EvaluationError with Field set to "value" or "uncertainty".
func Evaluate(engine Engine, f, u Expression, reg *Registry) Result {
	env := reg.Environment()
	var r Result
	r.Value, r.ValueErr = evalField(engine, f, env, "value")
	r.Uncertainty, r.UncertaintyErr = evalField(engine, u, env, "uncertainty")
	return r
}

func evalField(engine Engine, e Expression, env map[string]float64, field string) (float64, error) {
	if e == nil {
		return 0, &EvaluationError{Field: field, Err: ErrNoFunction}
	}
	x, err := engine.Evaluate(e, env)
	if err == nil {
		return x, nil
	}
	var ee *EvaluationError
	if errors.As(err, &ee) {
		c := *ee
		c.Field = field
		return 0, &c
	}
	return 0, &EvaluationError{Field: field, Err: err}
}

// String formats the result as "value ± uncertainty", with "Error" in place
// of a field that failed.
func (r Result) String() string {
	v, u := "Error", "Error"
	if r.ValueErr == nil {
		v = formatFloat(r.Value)
	}
	if r.UncertaintyErr == nil {
		u = formatFloat(r.Uncertainty)
	}
	return v + " ± " + u
}
