package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/richxcame/gift-wallet/pkg/config"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// "network" restricts a field to the wallet's persistence partitions.
	_ = validate.RegisterValidation("network", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == config.NetworkLivenet || v == config.NetworkTestnet
	})
}

// ValidateStruct validates a struct using its validate tags and returns a
// field-level ValidationError on failure.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(errs)
		}
		return err
	}
	return nil
}
