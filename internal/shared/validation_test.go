package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Kind  string       `json:"kind" validate:"oneof=a b"`
	Lines []sampleLine `json:"lines" validate:"required,min=1,dive"`
}

type sampleLine struct {
	Name string `json:"name" validate:"required"`
}

func TestValidationErrorFromUsesJSONNames(t *testing.T) {
	err := NewValidator().Struct(sampleInput{Kind: "c", Lines: []sampleLine{{}}})
	conv := ValidationErrorFrom(err)
	var verr *ValidationError
	require.ErrorAs(t, conv, &verr)
	require.ErrorIs(t, conv, ErrValidation)
	fields := []string{verr.Fields[0].Field, verr.Fields[1].Field}
	require.ElementsMatch(t, []string{"kind", "lines[0].name"}, fields)
	require.Equal(t, "kind must be one of: a b.", verr.Fields[0].Message)
}

func TestValidationErrorFromPassesOtherErrors(t *testing.T) {
	other := errors.New("boom")
	require.Same(t, other, ValidationErrorFrom(other))
	require.NoError(t, ValidationErrorFrom(nil))
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("timeout")
	err := NewPersistenceError("save", cause)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, cause)
	require.EqualError(t, err, "save: timeout")
	require.NoError(t, NewPersistenceError("save", nil))
}

func TestValidationErrorOrNil(t *testing.T) {
	verr := &ValidationError{}
	require.NoError(t, verr.OrNil())
	verr.Add("a", "first")
	verr.Add("b", "second")
	require.EqualError(t, verr.OrNil(), "first; second")
}
