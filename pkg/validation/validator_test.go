package validation

import (
	"errors"
	"testing"

	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string   `json:"customer_email" validate:"required,email"`
	Items []string `json:"line_items" validate:"min=1"`
	Total float64  `json:"total_amount" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Struct(sample{Email: "a@b.co", Items: []string{"x"}, Total: 1}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := Struct(sample{Email: "not-an-email"})
		require.Error(t, err)

		appErr := apperror.GetAppError(err)
		assert.Equal(t, apperror.TypeValidation, appErr.Type)

		fields := map[string]string{}
		for _, fe := range appErr.Errors {
			fields[fe.Field] = fe.Message
		}
		assert.Equal(t, "must be a valid email address", fields["customer_email"])
		assert.Equal(t, "must contain at least 1 item(s)", fields["line_items"])
		assert.Equal(t, "must be greater than 0", fields["total_amount"])
	})
}

type Source struct {
	Scenario string `json:"scenario" validate:"required,oneof=order subscription"`
}

type wrapped struct {
	Source
	Lines []line `json:"lines" validate:"dive"`
}

type line struct {
	Name string `json:"name" validate:"required"`
}

func TestFieldPath(t *testing.T) {
	err := Struct(wrapped{Lines: []line{{Name: "a"}, {}}})
	require.Error(t, err)

	var fields []string
	for _, fe := range apperror.GetAppError(err).Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"scenario", "lines[1].name"}, fields)
}

func TestBindingError(t *testing.T) {
	t.Run("validation failures keep field errors", func(t *testing.T) {
		verr := Validator().Struct(sample{Email: "a@b.co", Items: []string{"x"}})
		require.Error(t, verr)

		appErr := apperror.GetAppError(BindingError(verr))
		assert.Equal(t, apperror.TypeValidation, appErr.Type)
		require.Len(t, appErr.Errors, 1)
		assert.Equal(t, "total_amount", appErr.Errors[0].Field)
	})

	t.Run("decode failures are bad requests", func(t *testing.T) {
		appErr := apperror.GetAppError(BindingError(errors.New("unexpected EOF")))
		assert.Equal(t, apperror.TypeBadRequest, appErr.Type)
		assert.Equal(t, "Invalid request body: unexpected EOF", appErr.Message)
	})
}
