package common

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reEmail      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhoneChars = regexp.MustCompile(`^\+?[\d\s().\-/]+$`)
	reNonDigit   = regexp.MustCompile(`\D`)
	reWebsite    = regexp.MustCompile(`(?i)^(https?://)?(www\.)?[a-z0-9-]+(\.[a-z0-9-]+)+(/\S*)?$`)
)

// Phone numbers carry between MinPhoneDigits and MaxPhoneDigits digits.
const (
	MinPhoneDigits = 7
	MaxPhoneDigits = 15
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Failed reports whether fieldName collected at least one error.
func (v *Validator) Failed(fieldName string) bool {
	for _, e := range v.errors {
		if e.Field == fieldName {
			return true
		}
	}
	return false
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Error returns the collected failures as an INVALID_INPUT AppError.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(CodeInvalidInput, v.ErrorMessage(), ErrInvalidInput)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []byte:
		if len(v) == 0 {
			return &ValidationError{Field: fieldName, Value: "<empty>", Message: "is required"}
		}
	}
	return nil
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// MaxBytes bounds the size of a byte payload.
func MaxBytes(max int64) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		b, ok := value.([]byte)
		if !ok {
			return nil
		}
		if int64(len(b)) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   fmt.Sprintf("%d bytes", len(b)),
				Message: fmt.Sprintf("exceeds maximum allowed size of %d bytes", max),
			}
		}
		return nil
	}
}

// Email accepts empty values; non-empty values must look like local@domain.tld.
func Email(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if str == "" {
		return nil
	}
	if !reEmail.MatchString(str) {
		return &ValidationError{Field: fieldName, Value: value, Message: "invalid email format"}
	}
	return nil
}

// Phone accepts empty values; non-empty values may only use phone punctuation and
// must hold MinPhoneDigits..MaxPhoneDigits digits.
func Phone(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if str == "" {
		return nil
	}
	if !rePhoneChars.MatchString(str) {
		return &ValidationError{Field: fieldName, Value: value, Message: "contains characters not allowed in a phone number"}
	}
	digits := len(reNonDigit.ReplaceAllString(str, ""))
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must hold between %d and %d digits", MinPhoneDigits, MaxPhoneDigits),
		}
	}
	return nil
}

func Website(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if !reWebsite.MatchString(str) {
		return &ValidationError{Field: fieldName, Value: value, Message: "invalid website"}
	}
	return nil
}

// PhoneDigits strips everything but digits.
func PhoneDigits(s string) string {
	return reNonDigit.ReplaceAllString(s, "")
}
