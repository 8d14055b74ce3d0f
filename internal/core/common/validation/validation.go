package validation

import (
	"fmt"
	"strings"

	"github.com/campushub/campus-forum/internal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors so a request can be reported back with
// every problem at once instead of failing on the first.
type Validator struct {
	errors []FieldError
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
	return v
}

func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.add(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return v
}

func (v *Validator) MinLength(field, value string, min int) *Validator {
	if len(strings.TrimSpace(value)) < min {
		v.add(field, fmt.Sprintf("must be at least %d characters", min))
	}
	return v
}

// OneOf passes empty values through; combine with Required when the field is
// mandatory.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.add(field, message)
	}
	return v
}

func (v *Validator) Valid() bool {
	return len(v.errors) == 0
}

// Err returns a validation AppError carrying the accumulated field errors,
// or nil when everything passed.
func (v *Validator) Err() *internal.AppError {
	if len(v.errors) == 0 {
		return nil
	}
	return internal.NewValidationError("validation failed", internal.ErrCodeValidationFailed).
		WithDetails(v.errors)
}
