package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags and returns validator.ValidationErrors
// on failure. The error handler turns those into a 400.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
