// Package validation wires go-playground/validator into Echo.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator implements echo.Validator using struct validation tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
//
// Usage in main.go:
//
//	e.Validator = validation.NewValidator()
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// Validate validates a struct using its validation tags. Echo calls this
// when handlers invoke c.Validate(&req). The raw validator error is
// returned; callers map it to a domain error with FormatValidationErrors.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// FormatValidationErrors converts validator errors to user-friendly messages,
// keyed by lowercase field name.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_error"] = err.Error()
		return errs
	}

	for _, fieldErr := range validationErrors {
		fieldName := strings.ToLower(fieldErr.Field())

		switch fieldErr.Tag() {
		case "required":
			errs[fieldName] = "is required"
		case "email":
			errs[fieldName] = "must be a valid email address"
		case "min":
			errs[fieldName] = fmt.Sprintf("must be at least %s", fieldErr.Param())
		case "max":
			errs[fieldName] = fmt.Sprintf("must be no more than %s", fieldErr.Param())
		case "uuid":
			errs[fieldName] = "must be a valid UUID"
		case "gte":
			errs[fieldName] = fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
		case "lte":
			errs[fieldName] = fmt.Sprintf("must be less than or equal to %s", fieldErr.Param())
		case "oneof":
			errs[fieldName] = fmt.Sprintf("must be one of: %s", fieldErr.Param())
		case "latitude":
			errs[fieldName] = "must be a valid latitude"
		case "longitude":
			errs[fieldName] = "must be a valid longitude"
		default:
			errs[fieldName] = fmt.Sprintf("failed validation: %s", fieldErr.Tag())
		}
	}

	return errs
}
