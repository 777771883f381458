package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/investify-docs/pkg/apperror"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator instance. Field names in errors use
// the struct's json tag.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		UseJSONNames(validate)
	})
	return validate
}

// UseJSONNames makes v report fields by their json tag. Request binding
// registers it on gin's validator too.
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// BindingError converts a request binding failure into an apperror.
func BindingError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return apperror.NewValidationError(FieldErrors(validationErrors))
	}
	return apperror.NewBadRequestError("Invalid request body: " + err.Error())
}

// Struct validates s and converts any failures into an apperror validation error.
// It returns nil when s is valid.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.NewBadRequestError(err.Error())
	}

	return apperror.NewValidationError(FieldErrors(validationErrors))
}

// FieldErrors maps validator errors onto apperror field errors.
func FieldErrors(errs validator.ValidationErrors) []apperror.FieldError {
	out := make([]apperror.FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, apperror.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath keeps the json-named segments of the namespace, dropping the root
// struct and embedded structs: "GenerateDocumentRequest.SourceRequest.order_id" -> "order_id".
func fieldPath(fe validator.FieldError) string {
	var parts []string
	segments := strings.Split(fe.Namespace(), ".")
	for _, seg := range segments[1:] {
		if seg == "" || unicode.IsUpper(rune(seg[0])) {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return fe.Field()
	}
	return strings.Join(parts, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	case "hexcolor":
		return "must be a hex color"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
