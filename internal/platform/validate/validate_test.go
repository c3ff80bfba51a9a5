// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "title", "Dune", false},
		{"empty_string", "title", "", true},
		{"whitespace_only", "title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Fraction checks progress bounds.
*/
func TestValidator_Fraction(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		isValid bool
	}{
		{"zero", 0, true},
		{"middle", 0.42, true},
		{"one", 1, true},
		{"negative", -0.1, false},
		{"above_one", 1.01, false},
		{"nan", math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Fraction("progress", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Distinct rejects duplicates and blanks in a reorder list.
*/
func TestValidator_Distinct(t *testing.T) {
	assert.False(t, (&validate.Validator{}).Distinct("ids", []string{"a", "b"}).HasErrors())
	assert.False(t, (&validate.Validator{}).Distinct("ids", nil).HasErrors())
	assert.True(t, (&validate.Validator{}).Distinct("ids", []string{"a", "a"}).HasErrors())
	assert.True(t, (&validate.Validator{}).Distinct("ids", []string{"a", " "}).HasErrors())
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "Dune").
		Range("page", 12, 1, 900).
		MaxLen("title", "Dune", 500).
		UUID("id", "01929a6e-7c1b-7d3e-9f2a-0b1c2d3e4f50").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "").         // Fails
		Range("page", 0, 1, 900).      // Fails
		Fraction("progress", 2).       // Fails
		OneOf("state", "x", "a", "b"). // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	assert.Len(t, ae.Details, 4)
}
