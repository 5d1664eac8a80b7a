package api

import (
	"github.com/go-playground/validator/v10"

	apperrors "handcraft/pkg/errors"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperrors.BadRequest("Request validation failed", err)
	}
	return nil
}
