package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// requestValidator returns the shared validator with the "language" tag registered.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			return model.IsSupportedLanguage(fl.Field().String())
		})
	})
	return validate
}

// validateRequest checks payload against its `validate` tags. Failures wrap
// app_errors.ErrValidation and name every offending field.
func validateRequest(payload interface{}) error {
	err := requestValidator().Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", app_errors.ErrValidation, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", app_errors.ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "language":
		return fmt.Sprintf("%s %q is not one of %s", fe.Field(), fe.Value(), strings.Join(model.Languages, ", "))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
	}
}
