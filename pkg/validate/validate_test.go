package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/jatinilogsolution/vendor-portal-sub000/pkg/errors"
)

type sampleInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, Struct(sampleInput{Email: "ops@example.com", Name: "Ops"}))
}

func TestStructReportsFieldDetails(t *testing.T) {
	err := Struct(sampleInput{Email: "nope", Name: ""})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["name"])
}
