package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/nizwa-nursing/cpd-portal/internal"
)

var (
	structOnce     sync.Once
	structInstance *validator.Validate
)

func structValidator() *validator.Validate {
	structOnce.Do(func() {
		structInstance = validator.New(validator.WithRequiredStructEnabled())
		structInstance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return structInstance
}

// Struct checks the validate tags of a form payload and reports every
// failing field as a validation AppError keyed by its form name.
func Struct(v interface{}) *apperrors.AppError {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError("form validation failed", err)
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    string(apperrors.ErrCodeValidationFailed),
		})
	}
	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(apperrors.ValidationErrors{Errors: out})
}

func fieldMessage(fe validator.FieldError) string {
	label := humanLabel(fe.StructField())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// humanLabel splits a Go field name into words: EventName -> "Event name",
// StaffID -> "Staff ID".
func humanLabel(field string) string {
	runes := []rune(field)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
			if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				r = unicode.ToLower(r)
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
