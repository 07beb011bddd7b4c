package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `validate:"required"`
	SSN  string `validate:"omitempty,len=9,numeric"`
}

func TestValidate(t *testing.T) {
	_, err := Validate(sample{Name: "Jane"})
	assert.NoError(t, err)

	_, err = Validate(sample{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name' failed rule 'required'")
}

func TestValidate_DoesNotEchoValues(t *testing.T) {
	_, err := Validate(sample{Name: "Jane", SSN: "12345"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "len=9")
	assert.NotContains(t, err.Error(), "12345")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("123456789", "len=9,numeric"))
	assert.Error(t, ValidateValue("12-45", "len=9,numeric"))
}

func TestValidateValue_NotBlank(t *testing.T) {
	assert.NoError(t, ValidateValue("Ana", "required,notblank"))
	assert.Error(t, ValidateValue(" \t\n", "required,notblank"))
	assert.NoError(t, ValidateValue(" \t\n", "required"))
}

func TestValidateValue_NumberRejectsDecimals(t *testing.T) {
	assert.NoError(t, ValidateValue("6789", "number,len=4"))
	assert.Error(t, ValidateValue("1.23", "number,len=4"))
	assert.Error(t, ValidateValue("-123", "number,len=4"))
	assert.Error(t, ValidateValue("1234.5678", "number,len=9"))
	assert.NoError(t, ValidateValue("1234.5678", "numeric,len=9"))
}
