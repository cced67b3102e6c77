package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

// SetupValidator configures gin's validator with JSON tag names and
// domain-specific tags. Call once at startup, before routes are served.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in errors
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

	// payment_method: one of the settlement channels
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return billing.PaymentMethod(fl.Field().String()).IsValid()
	})

	// leak_entity: one of the billable clinical entity types
	_ = v.RegisterValidation("leak_entity", func(fl validator.FieldLevel) bool {
		return billing.LeakEntityType(fl.Field().String()).IsValid()
	})
}
