package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/izakgestao/backend/internal/domain/ledger"
)

// SetupValidator configures the binding validator: error messages use JSON
// field names, and the taxid tag accepts CPF (11 digits) or CNPJ (14
// digits) in punctuated or bare form.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("taxid", validTaxID)
}

func validTaxID(fl validator.FieldLevel) bool {
	digits := ledger.DigitsOnly(fl.Field().String())
	return len(digits) == 11 || len(digits) == 14
}
