package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testlab/internal/apperr"

	"github.com/go-playground/validator/v10"
)

const MaxPageLimit = 1000

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct checks the validate tags on value and reports the first
// failing field as a validation error.
func ValidateStruct(value any) error {
	err := validatorInstance().Struct(value)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return apperr.Validation(err.Error())
	}

	fieldErr := validationErrors[0]
	return apperr.ValidationField(fieldErr.Field(), describe(fieldErr))
}

func describe(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldErr.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fieldErr.Field(), fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldErr.Field())
	}
}

// ValidatePage rejects negative values and limits above MaxPageLimit.
func ValidatePage(limit, offset int) error {
	if limit < 0 {
		return apperr.ValidationField("limit", "limit must not be negative")
	}
	if limit > MaxPageLimit {
		return apperr.ValidationField("limit", fmt.Sprintf("limit must be at most %d", MaxPageLimit))
	}
	if offset < 0 {
		return apperr.ValidationField("offset", "offset must not be negative")
	}
	return nil
}
