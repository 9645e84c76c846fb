package uncertainty

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Variable is a measured quantity: a nominal value and its uncertainty.
type Variable struct {
	Name        string  `json:"name" yaml:"name" validate:"symbol"`
	Value       float64 `json:"value" yaml:"value" validate:"finite"`
	Uncertainty float64 `json:"uncertainty" yaml:"uncertainty" validate:"finite,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations adds the symbol and finite tags to a validator.
//
// symbol accepts a string of exactly one letter or underscore. finite accepts
// a float that is neither NaN nor infinite.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return validSymbol(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
}

func validSymbol(s string) bool {
	r, n := utf8.DecodeRuneInString(s)
	return n > 0 && n == len(s) && r != utf8.RuneError && (r == '_' || unicode.IsLetter(r))
}

// ValidateName checks that text is usable as a variable name. It does not
// check for conflicts.
func ValidateName(text string) error {
	if !validSymbol(text) {
		return &InvalidNameError{Name: text}
	}
	return nil
}

// ValidateNumber parses a finite number.
func ValidateNumber(text string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, &InvalidNumberError{Text: text, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &InvalidNumberError{Text: text, Err: ErrNonFinite}
	}
	return f, nil
}

// Validate checks a variable's fields.
func (v Variable) Validate() error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	// Report the first problem in field order.
	fe := verrs[0]
	switch fe.StructField() {
	case "Name":
		return &InvalidNameError{Name: v.Name}
	case "Value":
		return &InvalidNumberError{Field: "value", Text: formatFloat(v.Value), Err: errors.Errorf("failed %s check", fe.Tag())}
	default:
		return &InvalidNumberError{Field: "uncertainty", Text: formatFloat(v.Uncertainty), Err: errors.Errorf("failed %s check", fe.Tag())}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Registry is an ordered collection of variables with unique names. The zero
// value is an empty registry.
type Registry struct {
	vars []Variable
}

// Add appends a variable. The registry is unchanged if the name is invalid or
// in use or if either number is unusable.
func (r *Registry) Add(name string, value, uncertainty float64) error {
	v := Variable{Name: name, Value: value, Uncertainty: uncertainty}
	if err := v.Validate(); err != nil {
		return err
	}
	if _, ok := r.Lookup(name); ok {
		return &NameConflictError{Name: name}
	}
	r.vars = append(r.vars, v)
	return nil
}

// Remove deletes the variable at index and returns it.
func (r *Registry) Remove(index int) (Variable, error) {
	if index < 0 || index >= len(r.vars) {
		return Variable{}, &IndexError{Index: index, Len: len(r.vars)}
	}
	v := r.vars[index]
	r.vars = append(r.vars[:index:index], r.vars[index+1:]...)
	return v, nil
}

// Len returns the number of variables.
func (r *Registry) Len() int {
	return len(r.vars)
}

// Variables returns a copy of the variables in insertion order.
func (r *Registry) Variables() []Variable {
	return append([]Variable(nil), r.vars...)
}

// Names returns the variable names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.vars))
	for i, v := range r.vars {
		names[i] = v.Name
	}
	return names
}

// Lookup finds a variable by name.
func (r *Registry) Lookup(name string) (Variable, bool) {
	for _, v := range r.vars {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Environment binds each name to its nominal value.
func (r *Registry) Environment() map[string]float64 {
	env := make(map[string]float64, len(r.vars))
	for _, v := range r.vars {
		env[v.Name] = v.Value
	}
	return env
}
