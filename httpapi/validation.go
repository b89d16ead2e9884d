package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("notblank", notBlank); err != nil {
			panic("httpapi: register notblank rule: " + err.Error())
		}
	}
}

// notBlank rejects values that are whitespace only. "required" alone
// lets those through.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
