// Package foundation provides small generic building blocks shared by the
// configuration and server layers.
package foundation

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
)

// Validator represents a validation function.
type Validator[T any] func(T) ValidationResult

// ValidationResult contains the result of a validation operation.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Valid creates a successful validation result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid creates a failed validation result with errors.
func Invalid(errs ...FieldError) ValidationResult {
	return ValidationResult{Errors: errs}
}

// Combine merges multiple validation results.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	return Invalid(append(append([]FieldError(nil), vr.Errors...), other.Errors...)...)
}

// ToError converts a validation result to a classified validation error if invalid.
func (vr ValidationResult) ToError() error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	fields := make([]string, 0, len(vr.Errors))
	for _, fe := range vr.Errors {
		messages = append(messages, fe.Error())
		fields = append(fields, fe.Field)
	}
	return errors.ValidationError(strings.Join(messages, "; ")).
		WithContext("fields", fields).
		Build()
}

// Validate runs every validator against value and merges the results.
func Validate[T any](value T, validators ...Validator[T]) ValidationResult {
	result := Valid()
	for _, v := range validators {
		result = result.Combine(v(value))
	}
	return result
}

// Field adapts a validator of a field type into a validator of its parent.
func Field[P, T any](get func(P) T, v Validator[T]) Validator[P] {
	return func(p P) ValidationResult { return v(get(p)) }
}

// OneOf validates that a value is in a set of allowed values.
func OneOf[T comparable](field string, allowed ...T) Validator[T] {
	set := make(map[T]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(value T) ValidationResult {
		if _, ok := set[value]; !ok {
			return Invalid(FieldError{Field: field, Code: "one_of", Message: fmt.Sprintf("must be one of: %v", allowed)})
		}
		return Valid()
	}
}

// Positive validates that an integer is greater than zero.
func Positive(field string) Validator[int] {
	return func(v int) ValidationResult {
		if v <= 0 {
			return Invalid(FieldError{Field: field, Code: "positive", Message: fmt.Sprintf("must be > 0, got %d", v)})
		}
		return Valid()
	}
}

// NonNegative validates that an integer is zero or greater.
func NonNegative(field string) Validator[int] {
	return func(v int) ValidationResult {
		if v < 0 {
			return Invalid(FieldError{Field: field, Code: "non_negative", Message: fmt.Sprintf("must be >= 0, got %d", v)})
		}
		return Valid()
	}
}

// NotEmpty validates that a trimmed string is not empty.
func NotEmpty(field string) Validator[string] {
	return func(v string) ValidationResult {
		if strings.TrimSpace(v) == "" {
			return Invalid(FieldError{Field: field, Code: "required", Message: "is required"})
		}
		return Valid()
	}
}

// HTTPURL validates that a string is an absolute http(s) URL with a host.
func HTTPURL(field string) Validator[string] {
	return func(v string) ValidationResult {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Invalid(FieldError{Field: field, Code: "url", Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", v)})
		}
		return Valid()
	}
}
