package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxIdentifierLength = 128

	// ErrInvalidIdentifier is wrapped by every identifier rejection.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// Regular expressions
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func init() {
	validate = validator.New()
	// Registration only fails for an empty tag or a nil function.
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return ValidateIdentifier(fl.Field().String()) == nil
	})
}

// ValidateIdentifier checks a network, node or data set identifier: a letter or
// underscore followed by letters, digits or underscores.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty: %w", ErrInvalidIdentifier)
	}
	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("identifier '%s' exceeds maximum length of %d characters: %w", id, MaxIdentifierLength, ErrInvalidIdentifier)
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("identifier '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore): %w", id, ErrInvalidIdentifier)
	}
	return nil
}

// ValidateStruct validates v using its struct tags. Besides the standard tags,
// "identifier" applies ValidateIdentifier.
func ValidateStruct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "identifier":
			return fmt.Errorf("%s: '%v' is not a valid identifier", field, e.Value())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
