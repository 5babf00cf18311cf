package handler

import (
	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to Echo's Validator interface.
// It is installed on the Echo instance at startup so handlers can call
// c.Validate on bound payloads.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the shared validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}
