package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"weatherdash/internal/types"
)

// Validator wraps go-playground/validator and translates validation failures
// into field-keyed AppError details suitable for API responses.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator constructs a Validator. JSON tag names are used in error
// details so clients see the field names they actually sent.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates a request payload struct. On failure it returns a
// *types.AppError with code "validation_invalid_field" and a details map of
// field name to human-readable constraint description.
func (v *Validator) ValidateStruct(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var invalidErr *validator.InvalidValidationError
	if errors.As(err, &invalidErr) {
		v.logger.Error("validator received non-struct payload", "error", err)
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"an unexpected error occurred",
			err,
		)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"an unexpected error occurred",
			err,
		)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describeConstraint(fe)
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidField,
		"request validation failed",
		err,
		details,
	)
}

// describeConstraint renders a single field error as a short human-readable
// sentence fragment.
func describeConstraint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "latitude":
		return "must be a valid latitude between -90 and 90"
	case "longitude":
		return "must be a valid longitude between -180 and 180"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed constraint %q", fe.Tag())
	}
}
