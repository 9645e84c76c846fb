package uncertainty

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State describes whether a session's last outcome is current.
type State int

const (
	// Idle means nothing has been evaluated yet.
	Idle State = iota
	// Evaluated means the last outcome reflects the current function and
	// variables.
	Evaluated
	// Stale means the function or variables changed after the last outcome.
	Stale
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Evaluated:
		return "evaluated"
	case Stale:
		return "stale"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Outcome is the product of deriving and evaluating a session.
type Outcome struct {
	// Function is the text of the function that was evaluated.
	Function string
	// UncertaintyText is the rendered uncertainty expression.
	UncertaintyText string
	// Params are the variables used, in order.
	Params []Variable
	Result Result
	// Missing lists variables the function uses that are not in the
	// registry, sorted.
	Missing []string
}

// Session holds the variables, function, and derived uncertainty expression
// that a user works with. A Session is not safe for concurrent use.
type Session struct {
	engine  Engine
	builder *Builder
	log     logrus.FieldLogger

	reg     Registry
	fn      Expression
	invalid bool
	uexpr   Expression
	state   State
	last    *Outcome
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	engine  Engine
	log     logrus.FieldLogger
	builder []BuilderOption
}

// WithEngine sets the algebra engine. The default is NewEngine().
func WithEngine(e Engine) Option {
	return func(o *sessionOptions) {
		o.engine = e
	}
}

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *sessionOptions) {
		o.log = l
	}
}

// WithBuilderOptions sets options for deriving uncertainty expressions.
func WithBuilderOptions(opts ...BuilderOption) Option {
	return func(o *sessionOptions) {
		o.builder = append(o.builder, opts...)
	}
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = NewEngine()
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	return &Session{
		engine:  o.engine,
		builder: NewBuilder(o.engine, o.builder...),
		log:     o.log,
	}
}

// ValidateVariableName checks that text is a single letter not already used
// by a variable.
func (s *Session) ValidateVariableName(text string) error {
	if err := ValidateName(text); err != nil {
		return err
	}
	if _, ok := s.reg.Lookup(text); ok {
		return &NameConflictError{Name: text}
	}
	return nil
}

// ValidateNumber parses a finite number.
func (s *Session) ValidateNumber(text string) (float64, error) {
	return ValidateNumber(text)
}

// AddVariable adds a measured variable. The derived uncertainty expression is
// discarded.
func (s *Session) AddVariable(name string, value, uncertainty float64) error {
	if err := s.reg.Add(name, value, uncertainty); err != nil {
		s.log.WithError(err).WithField("name", name).Debug("variable rejected")
		return err
	}
	s.uexpr = nil
	s.touch()
	s.log.WithFields(logrus.Fields{
		"name":        name,
		"value":       value,
		"uncertainty": uncertainty,
		"count":       s.reg.Len(),
	}).Debug("variable added")
	return nil
}

// DeleteVariable removes the variable at index. The derived uncertainty
// expression is discarded.
func (s *Session) DeleteVariable(index int) error {
	v, err := s.reg.Remove(index)
	if err != nil {
		return err
	}
	s.uexpr = nil
	s.touch()
	s.log.WithFields(logrus.Fields{"name": v.Name, "index": index}).Debug("variable deleted")
	return nil
}

// SetFunction parses text as the function to evaluate. If parsing fails, the
// previous function remains in use and FunctionValid reports false until a
// function parses.
func (s *Session) SetFunction(text string) error {
	fn, err := s.engine.Parse(text)
	if err != nil {
		s.invalid = true
		s.log.WithError(err).WithField("text", text).Debug("function rejected")
		return err
	}
	s.fn = fn
	s.invalid = false
	s.uexpr = nil
	s.touch()
	s.log.WithField("function", s.engine.Text(fn)).Debug("function set")
	return nil
}

// touch marks the last outcome stale.
func (s *Session) touch() {
	if s.state == Evaluated {
		s.state = Stale
	}
}

// FunctionValid reports whether the most recent function text parsed.
func (s *Session) FunctionValid() bool {
	return !s.invalid
}

// Function returns the text of the function in use, or the empty string if
// there is none.
func (s *Session) Function() string {
	if s.fn == nil {
		return ""
	}
	return s.engine.Text(s.fn)
}

// Variables returns the session's variables in order.
func (s *Session) Variables() []Variable {
	return s.reg.Variables()
}

// UncertaintyExpression returns the text of the derived uncertainty
// expression, or the empty string if it has been discarded or never derived.
func (s *Session) UncertaintyExpression() string {
	if s.uexpr == nil {
		return ""
	}
	return s.engine.Text(s.uexpr)
}

// State returns whether the last outcome is current.
func (s *Session) State() State {
	return s.state
}

// Last returns the most recent outcome, if any.
func (s *Session) Last() (Outcome, bool) {
	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

// DeriveAndEvaluate derives the uncertainty expression from scratch and
// evaluates it along with the function. Evaluation failures are reported in
// the outcome's Result; the error is non-nil only when there is no function
// or differentiation fails.
func (s *Session) DeriveAndEvaluate() (Outcome, error) {
	if s.fn == nil {
		return Outcome{}, ErrNoFunction
	}
	vars := s.reg.Variables()
	u, err := s.builder.Build(s.fn, vars)
	if err != nil {
		s.log.WithError(err).Debug("derivation failed")
		return Outcome{}, errors.WithMessage(err, "deriving uncertainty")
	}
	s.uexpr = u
	out := Outcome{
		Function:        s.engine.Text(s.fn),
		UncertaintyText: s.engine.Text(u),
		Params:          vars,
		Result:          Evaluate(s.engine, s.fn, u, &s.reg),
		Missing:         s.missing(),
	}
	s.last = &out
	s.state = Evaluated
	s.log.WithFields(logrus.Fields{
		"function":    out.Function,
		"uncertainty": out.UncertaintyText,
		"result":      out.Result.String(),
		"missing":     out.Missing,
	}).Debug("evaluated")
	return out, nil
}

// missing lists function variables absent from the registry.
func (s *Session) missing() []string {
	var r []string
	for _, name := range s.engine.Vars(s.fn) {
		if _, ok := s.reg.Lookup(name); !ok {
			r = append(r, name)
		}
	}
	sort.Strings(r)
	return r
}
