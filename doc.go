// Package uncertainty propagates measurement uncertainty through a function of
// measured variables.
//
// Given f(x₁, …, xₙ) and measurements xᵢ = vᵢ ± uᵢ, the first-order estimate
// of the uncertainty of f is
//
//	σ = sqrt(Σ (uᵢ ∂f/∂xᵢ)²)
//
// A Session collects the variables and the function text, derives σ
// symbolically with the expressions package, and evaluates both f and σ at
// the nominal values.
//
//	s := uncertainty.NewSession()
//	s.AddVariable("x", 2, 0.01)
//	s.AddVariable("y", 3, 0.02)
//	s.SetFunction("x y")
//	out, _ := s.DeriveAndEvaluate()
//	fmt.Println(out.UncertaintyText) // sqrt((0.01 * y) ^ 2 + (0.02 * x) ^ 2)
//	fmt.Println(out.Result)          // 6 ± 0.05
package uncertainty
