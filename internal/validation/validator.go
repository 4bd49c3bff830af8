// Package validation checks request bodies before they reach the services.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	apperrors "edupay/internal/errors"

	"github.com/shopspring/decimal"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Nigerian mobile numbers, local or international form.
	phoneRegex = regexp.MustCompile(`^(\+?234|0)[789][01][0-9]{8}$`)
)

// Validator collects field errors
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first message recorded for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns nil when valid, otherwise an ErrValidation listing every field.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+" "+v.Errors[f])
	}
	return apperrors.WithMessage(apperrors.ErrValidation, "%s", strings.Join(parts, "; "))
}

func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

func (v *Validator) Email(field, email string) {
	v.Check(emailRegex.MatchString(email), field, "must be a valid email address")
}

func (v *Validator) Phone(field, phone string) {
	v.Check(phoneRegex.MatchString(phone), field, "must be a valid Nigerian phone number")
}

func (v *Validator) MaxLength(field, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

func (v *Validator) PositiveAmount(field string, amount decimal.Decimal) {
	v.Check(amount.IsPositive(), field, "must be greater than zero")
}

// Password validates password strength
func (v *Validator) Password(field, password string) {
	v.Check(len(password) >= MinPasswordLength, field,
		fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	v.Check(len(password) <= MaxPasswordLength, field,
		fmt.Sprintf("must not be more than %d characters long", MaxPasswordLength))

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	v.Check(hasLetter, field, "must contain at least one letter")
	v.Check(hasNumber, field, "must contain at least one number")
	v.Check(HasSpecialChar(password), field, "must contain at least one special character")
}

// HasSpecialChar checks if a string contains at least one special character
func HasSpecialChar(s string) bool {
	for _, char := range s {
		if unicode.IsPunct(char) || unicode.IsSymbol(char) {
			return true
		}
	}
	return false
}
