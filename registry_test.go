package uncertainty_test

import (
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/uncertainty"
)

func TestRegistryAdd(t *testing.T) {
	var r uncertainty.Registry
	require.NoError(t, r.Add("x", 2, 0.01))
	require.NoError(t, r.Add("y", 3, 0))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"x", "y"}, r.Names())

	cases := []struct {
		name  string
		v     string
		value float64
		unc   float64
		err   any
	}{
		{"duplicate", "x", 1, 1, new(*uncertainty.NameConflictError)},
		{"long", "xy", 1, 1, new(*uncertainty.InvalidNameError)},
		{"empty", "", 1, 1, new(*uncertainty.InvalidNameError)},
		{"digit", "1", 1, 1, new(*uncertainty.InvalidNameError)},
		{"operator", "+", 1, 1, new(*uncertainty.InvalidNameError)},
		{"nan", "z", math.NaN(), 1, new(*uncertainty.InvalidNumberError)},
		{"inf", "z", math.Inf(1), 1, new(*uncertainty.InvalidNumberError)},
		{"negative", "z", 1, -1, new(*uncertainty.InvalidNumberError)},
		{"inf-unc", "z", 1, math.Inf(1), new(*uncertainty.InvalidNumberError)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := r.Add(c.v, c.value, c.unc)
			require.Error(t, err)
			assert.ErrorAs(t, err, c.err)
			assert.Equal(t, 2, r.Len(), "registry changed after failed add")
		})
	}
}

func TestRegistryUnicodeName(t *testing.T) {
	var r uncertainty.Registry
	require.NoError(t, r.Add("λ", 1, 0.5))
	require.NoError(t, r.Add("_", 1, 0.5))
	v, ok := r.Lookup("λ")
	require.True(t, ok)
	assert.Equal(t, 0.5, v.Uncertainty)
}

func TestRegistryRemove(t *testing.T) {
	var r uncertainty.Registry
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, r.Add(n, 1, 1))
	}
	vars := r.Variables()
	v, err := r.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, "b", v.Name)
	assert.Equal(t, []string{"a", "c"}, r.Names())
	// Earlier copies are unaffected.
	assert.Equal(t, "b", vars[1].Name)

	_, err = r.Remove(2)
	var ie *uncertainty.IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 2, ie.Index)
	assert.Equal(t, 2, ie.Len)
	_, err = r.Remove(-1)
	assert.ErrorAs(t, err, &ie)
}

func TestRegistryEnvironment(t *testing.T) {
	var r uncertainty.Registry
	require.NoError(t, r.Add("x", 2, 0.1))
	require.NoError(t, r.Add("e", 3, 0.1))
	assert.Equal(t, map[string]float64{"x": 2, "e": 3}, r.Environment())
}

func TestValidateNumber(t *testing.T) {
	good := map[string]float64{
		"1":       1,
		" 2.5 ":   2.5,
		"-0.01":   -0.01,
		"1e-3":    0.001,
		"6.02E23": 6.02e23,
	}
	for text, want := range good {
		got, err := uncertainty.ValidateNumber(text)
		if assert.NoError(t, err, text) {
			assert.Equal(t, want, got, text)
		}
	}
	for _, text := range []string{"", "x", "1..2", "inf", "NaN", "1e999"} {
		_, err := uncertainty.ValidateNumber(text)
		assert.ErrorAs(t, err, new(*uncertainty.InvalidNumberError), text)
	}
}

func TestRegisterValidations(t *testing.T) {
	type req struct {
		Name string  `validate:"symbol"`
		X    float64 `validate:"finite"`
	}
	v := validator.New()
	require.NoError(t, uncertainty.RegisterValidations(v))
	assert.NoError(t, v.Struct(req{Name: "x", X: 1}))
	assert.Error(t, v.Struct(req{Name: "xx", X: 1}))
	assert.Error(t, v.Struct(req{Name: "x", X: math.Inf(-1)}))
}
