package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitExceededError(t *testing.T) {
	err := NewLimitExceededError(decimal.NewFromInt(100), decimal.NewFromInt(150))

	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Equal(t, CodeLimitExceeded, err.Code)
	assert.Equal(t, "Purchase limit exceeded. Available: 100.00, Requested: 150.00", err.Error())
	assert.True(t, err.Details["available"].(decimal.Decimal).Equal(decimal.NewFromInt(100)))
	assert.True(t, err.Details["requested"].(decimal.Decimal).Equal(decimal.NewFromInt(150)))
}

func TestInvalidStateErrorCarriesStatus(t *testing.T) {
	err := NewInvalidStateError("Purchase request is already approved", "approved")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, "approved", err.Details["currentStatus"])
}

func TestConflictErrorMatchesBothSentinels(t *testing.T) {
	err := NewConflictError(ErrEmailAlreadyExists, "Email already registered")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, ErrEmailAlreadyExists))
}

func TestInternalize(t *testing.T) {
	raw := errors.New("connection reset by peer")

	wrapped := Internalize(raw, "failed to load student")
	ce, ok := AsCustomError(wrapped)
	require.True(t, ok)
	assert.True(t, errors.Is(wrapped, ErrInternal))
	assert.Equal(t, "failed to load student", ce.Error())
	assert.Equal(t, raw, ce.Cause)

	notFound := NewNotFoundError("Student not found")
	assert.Same(t, notFound, Internalize(notFound, "ignored"))

	kindOnly := fmt.Errorf("lookup: %w", ErrNotFound)
	assert.Equal(t, kindOnly, Internalize(kindOnly, "ignored"))

	assert.Nil(t, Internalize(nil, "ignored"))
}
