package uncertainty

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/zephyrtronium/uncertainty/expressions"
)

// ErrNoFunction is returned when deriving before any function has parsed.
var ErrNoFunction = errors.New("no function to evaluate")

// ErrNonFinite is the cause of an EvaluationError for a result that is
// infinite.
var ErrNonFinite = errors.New("result is not finite")

// ParseError is an error parsing function text. Err is usually an
// expressions.InputError carrying the position of the problem.
type ParseError struct {
	// Text is the text that failed to parse.
	Text string
	Err  error
}

func (err *ParseError) Error() string {
	return "cannot parse " + strconv.Quote(err.Text) + ": " + err.Err.Error()
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// Pos returns the rune position of the problem in Text, or 0 if unknown.
func (err *ParseError) Pos() int {
	var ie expressions.InputError
	if errors.As(err.Err, &ie) {
		return ie.Pos()
	}
	return 0
}

// InvalidNameError is an error for a variable name that is not a single
// letter.
type InvalidNameError struct {
	Name string
}

func (err *InvalidNameError) Error() string {
	return "invalid variable name " + strconv.Quote(err.Name) + ": must be a single letter"
}

// NameConflictError is an error adding a variable whose name is already in
// use.
type NameConflictError struct {
	Name string
}

func (err *NameConflictError) Error() string {
	return "variable " + strconv.Quote(err.Name) + " already exists"
}

// InvalidNumberError is an error for a value or uncertainty that is not a
// usable number.
type InvalidNumberError struct {
	// Field names the rejected quantity, e.g. "value" or "uncertainty".
	Field string
	// Text is the rejected input.
	Text string
	// Err is the cause, if any.
	Err error
}

func (err *InvalidNumberError) Error() string {
	s := "invalid number " + strconv.Quote(err.Text)
	if err.Field != "" {
		s = "invalid " + err.Field + " " + strconv.Quote(err.Text)
	}
	if err.Err != nil {
		s += ": " + err.Err.Error()
	}
	return s
}

func (err *InvalidNumberError) Unwrap() error {
	return err.Err
}

// DifferentiationError is an error computing a partial derivative.
type DifferentiationError struct {
	// Variable is the variable of differentiation.
	Variable string
	Err      error
}

func (err *DifferentiationError) Error() string {
	return "cannot differentiate with respect to " + strconv.Quote(err.Variable) + ": " + err.Err.Error()
}

func (err *DifferentiationError) Unwrap() error {
	return err.Err
}

// EvaluationError is an error evaluating an expression numerically.
type EvaluationError struct {
	// Field is "value" or "uncertainty" when the error came from evaluating
	// a session.
	Field string
	Err   error
}

func (err *EvaluationError) Error() string {
	if err.Field == "" {
		return "cannot evaluate: " + err.Err.Error()
	}
	return "cannot evaluate " + err.Field + ": " + err.Err.Error()
}

func (err *EvaluationError) Unwrap() error {
	return err.Err
}

// IndexError is an error for a variable index out of range.
type IndexError struct {
	Index int
	Len   int
}

func (err *IndexError) Error() string {
	return "variable index " + strconv.Itoa(err.Index) + " out of range [0, " + strconv.Itoa(err.Len) + ")"
}
