package uncertainty_test

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/zephyrtronium/uncertainty"
)

type SessionSuite struct {
	suite.Suite
	s *uncertainty.Session
}

func (s *SessionSuite) SetupTest() {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s.s = uncertainty.NewSession(uncertainty.WithLogger(log))
}

func (s *SessionSuite) TestNoFunction() {
	s.Require().NoError(s.s.AddVariable("x", 1, 1))
	_, err := s.s.DeriveAndEvaluate()
	s.ErrorIs(err, uncertainty.ErrNoFunction)
	s.Equal(uncertainty.Idle, s.s.State())
}

func (s *SessionSuite) TestSquare() {
	s.Require().NoError(s.s.AddVariable("x", 3, 0.01))
	s.Require().NoError(s.s.SetFunction("x^2"))
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.NoError(out.Result.ValueErr)
	s.NoError(out.Result.UncertaintyErr)
	s.InDelta(9, out.Result.Value, 1e-12)
	s.InDelta(0.06, out.Result.Uncertainty, 1e-12)
	s.Equal("x ^ 2", out.Function)
	s.Empty(out.Missing)
	s.Equal(uncertainty.Evaluated, s.s.State())
}

func (s *SessionSuite) TestProduct() {
	s.Require().NoError(s.s.AddVariable("x", 2, 0.01))
	s.Require().NoError(s.s.AddVariable("y", 3, 0.02))
	s.Require().NoError(s.s.SetFunction("x y"))
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.InDelta(6, out.Result.Value, 1e-12)
	s.InDelta(0.05, out.Result.Uncertainty, 1e-12)
	s.Equal("sqrt((0.01 * y) ^ 2 + (0.02 * x) ^ 2)", out.UncertaintyText)
	s.Equal(out.UncertaintyText, s.s.UncertaintyExpression())
	s.Len(out.Params, 2)
}

func (s *SessionSuite) TestSingleNegativeSlope() {
	s.Require().NoError(s.s.AddVariable("x", 2, 0.5))
	s.Require().NoError(s.s.SetFunction("-3x"))
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.InDelta(1.5, out.Result.Uncertainty, 1e-12)
}

func (s *SessionSuite) TestSignedSingleTerm() {
	sess := uncertainty.NewSession(
		uncertainty.WithLogger(logrus.New()),
		uncertainty.WithBuilderOptions(uncertainty.WithSignedSingleTerm()),
	)
	s.Require().NoError(sess.AddVariable("x", 2, 0.5))
	s.Require().NoError(sess.SetFunction("-3x"))
	out, err := sess.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.InDelta(-1.5, out.Result.Uncertainty, 1e-12)
}

func (s *SessionSuite) TestNoVariables() {
	s.Require().NoError(s.s.SetFunction("2 + 3"))
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.Equal(5.0, out.Result.Value)
	s.Equal(0.0, out.Result.Uncertainty)
	s.Equal("0", out.UncertaintyText)
}

func (s *SessionSuite) TestDeleteRemovesTerm() {
	s.Require().NoError(s.s.AddVariable("x", 2, 0.01))
	s.Require().NoError(s.s.AddVariable("y", 3, 0.02))
	s.Require().NoError(s.s.SetFunction("x + y"))
	_, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.NotEmpty(s.s.UncertaintyExpression())

	s.Require().NoError(s.s.DeleteVariable(1))
	s.Empty(s.s.UncertaintyExpression())
	s.Equal(uncertainty.Stale, s.s.State())

	// y is no longer measured, so the value cannot be computed while the
	// uncertainty involves only x.
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.Equal([]string{"y"}, out.Missing)
	s.NotContains(out.UncertaintyText, "y")
	s.InDelta(0.01, out.Result.Uncertainty, 1e-12)
	var ee *uncertainty.EvaluationError
	s.Require().ErrorAs(out.Result.ValueErr, &ee)
	s.Equal("value", ee.Field)
	s.NoError(out.Result.UncertaintyErr)
	s.Equal("Error ± 0.01", out.Result.String())
}

func (s *SessionSuite) TestDeleteOutOfRange() {
	err := s.s.DeleteVariable(0)
	var ie *uncertainty.IndexError
	s.ErrorAs(err, &ie)
}

func (s *SessionSuite) TestAddKeepsTerms() {
	s.Require().NoError(s.s.AddVariable("x", 2, 0.01))
	s.Require().NoError(s.s.SetFunction("x y"))
	s.Require().NoError(s.s.AddVariable("y", 3, 0.02))
	before, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.Require().NoError(s.s.AddVariable("z", 1, 0.5))
	s.Empty(s.s.UncertaintyExpression())
	last, ok := s.s.Last()
	s.Require().True(ok)
	s.Equal(before.UncertaintyText, last.UncertaintyText)
	after, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	// z does not appear in the function, so its term is zero.
	s.Equal(before.UncertaintyText, after.UncertaintyText)
	s.InDelta(before.Result.Uncertainty, after.Result.Uncertainty, 1e-15)
	s.Len(after.Params, 3)
}

func (s *SessionSuite) TestInvalidFunctionKeepsPrevious() {
	s.Require().NoError(s.s.AddVariable("x", 4, 0.1))
	s.Require().NoError(s.s.SetFunction("sqrt(x)"))
	s.True(s.s.FunctionValid())

	err := s.s.SetFunction("sqrt(x")
	var pe *uncertainty.ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal("sqrt(x", pe.Text)
	s.False(s.s.FunctionValid())
	s.Equal("sqrt(x)", s.s.Function())

	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.InDelta(2, out.Result.Value, 1e-12)
	s.InDelta(0.025, out.Result.Uncertainty, 1e-12)

	s.Require().NoError(s.s.SetFunction("x"))
	s.True(s.s.FunctionValid())
}

func (s *SessionSuite) TestUncertaintyDomainError() {
	// sqrt is defined at 0 but its derivative is not.
	s.Require().NoError(s.s.AddVariable("x", 0, 0.1))
	s.Require().NoError(s.s.SetFunction("sqrt(x)"))
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.NoError(out.Result.ValueErr)
	s.Equal(0.0, out.Result.Value)
	var ee *uncertainty.EvaluationError
	s.Require().ErrorAs(out.Result.UncertaintyErr, &ee)
	s.Equal("uncertainty", ee.Field)
	s.Equal("0 ± Error", out.Result.String())
}

func (s *SessionSuite) TestStateTransitions() {
	s.Equal(uncertainty.Idle, s.s.State())
	_, ok := s.s.Last()
	s.False(ok)

	s.Require().NoError(s.s.AddVariable("x", 1, 0.1))
	s.Equal(uncertainty.Idle, s.s.State())
	s.Require().NoError(s.s.SetFunction("x"))
	_, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.Equal(uncertainty.Evaluated, s.s.State())
	last, ok := s.s.Last()
	s.True(ok)
	s.Equal("x", last.Function)

	s.Require().NoError(s.s.AddVariable("y", 1, 0.1))
	s.Equal(uncertainty.Stale, s.s.State())
	// The derived expression no longer matches the variables.
	s.Empty(s.s.UncertaintyExpression())

	_, err = s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.Equal(uncertainty.Evaluated, s.s.State())

	// A failed parse does not change the outcome.
	s.Error(s.s.SetFunction("x +"))
	s.Equal(uncertainty.Evaluated, s.s.State())

	s.Require().NoError(s.s.SetFunction("x y"))
	s.Equal(uncertainty.Stale, s.s.State())
	s.Empty(s.s.UncertaintyExpression())

	// A rejected variable does not change the outcome either.
	_, err = s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.Error(s.s.AddVariable("x", 2, 0.1))
	s.Equal(uncertainty.Evaluated, s.s.State())
}

func (s *SessionSuite) TestValidation() {
	s.Require().NoError(s.s.AddVariable("x", 1, 0.1))
	s.NoError(s.s.ValidateVariableName("y"))
	s.ErrorAs(s.s.ValidateVariableName("x"), new(*uncertainty.NameConflictError))
	s.ErrorAs(s.s.ValidateVariableName("xy"), new(*uncertainty.InvalidNameError))
	f, err := s.s.ValidateNumber("0.25")
	s.NoError(err)
	s.Equal(0.25, f)
	_, err = s.s.ValidateNumber("abc")
	s.ErrorAs(err, new(*uncertainty.InvalidNumberError))
}

func (s *SessionSuite) TestNonFinite() {
	s.Require().NoError(s.s.AddVariable("x", 1000, 1))
	s.Require().NoError(s.s.SetFunction("exp(x)"))
	out, err := s.s.DeriveAndEvaluate()
	s.Require().NoError(err)
	s.ErrorIs(out.Result.ValueErr, uncertainty.ErrNonFinite)
	s.ErrorIs(out.Result.UncertaintyErr, uncertainty.ErrNonFinite)
	s.False(math.IsInf(out.Result.Value, 0))
}

func TestSession(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}
