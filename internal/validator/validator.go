// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"finly/internal/dates"
	"finly/internal/models"
	"finly/internal/services"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerAll(v)
	}
}

func registerAll(v *validator.Validate) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("wire_date", validateWireDate)
	_ = v.RegisterValidation("password_complexity", validatePasswordComplexity)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

// validateWireDate accepts DD/MM/YYYY calendar dates.
func validateWireDate(fl validator.FieldLevel) bool {
	_, err := dates.ParseWire(fl.Field().String())
	return err == nil
}

func validatePasswordComplexity(fl validator.FieldLevel) bool {
	return services.IsPasswordComplex(fl.Field().String())
}
