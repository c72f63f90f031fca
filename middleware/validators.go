package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samim9090/noirman-ecommerce/models"
)

// RegisterValidators adds the storefront binding rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("productsize", oneOf(models.ProductSizes)); err != nil {
		return err
	}
	return v.RegisterValidation("paymentmethod", oneOf([]string{models.PaymentMethodStripe, models.PaymentMethodCOD}))
}

func oneOf(allowed []string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}
