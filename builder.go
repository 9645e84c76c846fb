package uncertainty

import "github.com/pkg/errors"

// Builder derives uncertainty expressions by first-order propagation:
//
//	σ = sqrt(Σ (uᵢ ∂f/∂xᵢ)²)
//
// With a single variable the result is the magnitude |u ∂f/∂x|, or the signed
// term u ∂f/∂x with WithSignedSingleTerm. With no variables it is 0.
type Builder struct {
	engine Engine
	signed bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSignedSingleTerm makes the single-variable case produce u ∂f/∂x without
// taking its absolute value.
func WithSignedSingleTerm() BuilderOption {
	return func(b *Builder) {
		b.signed = true
	}
}

// NewBuilder creates a builder which uses engine for algebra.
func NewBuilder(engine Engine, opts ...BuilderOption) *Builder {
	b := Builder{engine: engine}
	for _, opt := range opts {
		opt(&b)
	}
	return &b
}

// Build derives the uncertainty expression of f for vars in order. If any
// partial derivative fails, the result is a *DifferentiationError.
func (b *Builder) Build(f Expression, vars []Variable) (Expression, error) {
	eng := b.engine
	if len(vars) == 0 {
		return eng.Constant(0), nil
	}
	terms := make([]Expression, len(vars))
	for i, v := range vars {
		d, err := eng.Derivative(f, v.Name)
		if err != nil {
			var de *DifferentiationError
			if !errors.As(err, &de) {
				de = &DifferentiationError{Err: err}
			}
			if de.Variable == "" {
				de.Variable = v.Name
			}
			return nil, de
		}
		terms[i] = eng.Product(eng.Constant(v.Uncertainty), d)
	}
	if len(terms) == 1 {
		if b.signed {
			return terms[0], nil
		}
		return eng.Abs(terms[0]), nil
	}
	for i, t := range terms {
		terms[i] = eng.Square(t)
	}
	return eng.Sqrt(eng.Sum(terms...)), nil
}
