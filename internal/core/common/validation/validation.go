package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	errors "github.com/nizwa-nursing/cpd-portal/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Label      string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

// Field registers a value under its form field name. The label is used in
// generated messages; it defaults to the field name.
func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Label:      name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Labeled(label string) *FieldValidator {
	fv.Label = label
	return fv
}

// RequiredWithMessage fails blank values with a fixed message, which the
// registration form shows verbatim.
func (fv *FieldValidator) RequiredWithMessage(message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case int:
			if v == 0 {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		case time.Time:
			if v.IsZero() {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" {
			if utf8.RuneCountInString(v) < min {
				message := fmt.Sprintf("%s must be at least %d characters", fv.Label, min)
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if utf8.RuneCountInString(v) > max {
				message := fmt.Sprintf("%s must not exceed %d characters", fv.Label, max)
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NotPast(today time.Time) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(time.Time); ok && !v.IsZero() {
			if v.Before(today) {
				message := fmt.Sprintf("%s cannot be in the past", fv.Label)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// Validate runs every field and collects all failures. A field stops at its
// first failing rule so a blank value is reported once.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: appErr.Message,
					Code:    string(appErr.Code),
				})
			}
			break
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// ValidateStaffID applies the configured length bounds to a staff ID.
func ValidateStaffID(staffID string, minLen, maxLen int) *errors.AppError {
	validator := NewValidator()
	validator.Field("staffId", strings.TrimSpace(staffID)).
		Labeled("Staff ID").
		RequiredWithMessage("Please enter Staff ID", errors.ErrCodeMissingStaffID).
		MinLength(minLen, errors.ErrCodeInvalidStaffID).
		MaxLength(maxLen, errors.ErrCodeInvalidStaffID)
	return validator.Validate()
}
