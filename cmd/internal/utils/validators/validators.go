package validators

import (
	"github.com/go-playground/validator/v10"

	"cnpjbase/cmd/internal/utils"
)

// CNPJ validates that a string field holds a CNPJ with correct length and
// check digits, punctuation allowed.
func CNPJ(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	_, err := utils.NormalizeCNPJ(val)
	return err == nil
}
