package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courseInput struct {
	Code string `validate:"required,coursecode"`
}

func TestCourseCodeRule(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	for _, code := range []string{"ENV101", "env201", "CLM340A", "WA150"} {
		assert.NoError(t, v.Struct(courseInput{Code: code}), code)
	}
	for _, code := range []string{"E101", "ENVIRO101", "ENV10", "ENV-101", ""} {
		assert.Error(t, v.Struct(courseInput{Code: code}), code)
	}
}

func TestRegisterWithGin(t *testing.T) {
	assert.NoError(t, RegisterWithGin())
}
