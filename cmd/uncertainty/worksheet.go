package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/zephyrtronium/uncertainty"
)

// worksheet is a function with its measured variables, as stored in YAML:
//
//	function: x y
//	variables:
//	  - name: x
//	    value: 2
//	    uncertainty: 0.01
type worksheet struct {
	Function  string                 `yaml:"function"`
	Variables []uncertainty.Variable `yaml:"variables"`
}

func loadWorksheet(path string) (*worksheet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w worksheet
	if err := yaml.UnmarshalStrict(b, &w); err != nil {
		return nil, errors.Wrapf(err, "reading worksheet %s", path)
	}
	return &w, nil
}

// parseVariable parses a definition like x=2±0.01 or x=2+-0.01. The
// uncertainty may be omitted, in which case it is zero.
func parseVariable(s string) (uncertainty.Variable, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok {
		return uncertainty.Variable{}, errors.Errorf(`variable definitions must be "name=value±uncertainty", not %q`, s)
	}
	name = strings.TrimSpace(name)
	if err := uncertainty.ValidateName(name); err != nil {
		return uncertainty.Variable{}, err
	}
	val, unc, ok := strings.Cut(rest, "±")
	if !ok {
		val, unc, ok = strings.Cut(rest, "+-")
	}
	v := uncertainty.Variable{Name: name}
	var err error
	if v.Value, err = uncertainty.ValidateNumber(val); err != nil {
		return uncertainty.Variable{}, errors.WithMessagef(err, "value of %s", name)
	}
	if ok {
		if v.Uncertainty, err = uncertainty.ValidateNumber(unc); err != nil {
			return uncertainty.Variable{}, errors.WithMessagef(err, "uncertainty of %s", name)
		}
	}
	return v, nil
}
