// Package validate provides a chainable Validator that collects field-level
// errors and reports them as a single apperr ValidationError whose message
// names the first failing field.
package validate

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/mjhajdugaNext/messenger/internal/apperr"
)

// Validator is not safe for concurrent use; create one per operation.
type Validator struct {
	errs []apperr.FieldError
}

func New() *Validator { return &Validator{} }

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, fmt.Sprintf("%s is required", field))
	}
	return v
}

func (v *Validator) Email(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, fmt.Sprintf("%s must be a valid email address", field))
	}
	return v
}

// OneOf fails if a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
	return v
}

// Custom adds msg for field when failed is true.
func (v *Validator) Custom(field string, failed bool, msg string) *Validator {
	if failed {
		v.add(field, msg)
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

// Err returns nil or a ValidationError carrying every collected FieldError.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperr.ValidationError(v.errs[0].Message, v.errs...)
}

func (v *Validator) add(field, msg string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: msg})
}
