package middlewares

import (
	"fmt"

	"civicsetu-be/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the reportstatus, category, priority and role
// binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	rules := map[string]validator.Func{
		"reportstatus": func(fl validator.FieldLevel) bool {
			return models.ReportStatus(fl.Field().String()).IsValid()
		},
		"category": func(fl validator.FieldLevel) bool {
			return models.IsValidCategoryKey(fl.Field().String())
		},
		"priority": func(fl validator.FieldLevel) bool {
			return models.ReportPriority(fl.Field().String()).IsValid()
		},
		"role": func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).IsValid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}
