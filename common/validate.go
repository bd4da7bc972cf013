package common

import (
	"github.com/go-playground/validator/v10"
)

// Validate is the shared struct validator.
var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())
}
