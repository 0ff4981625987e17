// Package validation holds request rules shared by the cart endpoints.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"lojavirtual/internal/domain"
)

// DefaultMaxQuantity is used when no cart maximum is configured.
const DefaultMaxQuantity = 99

// QuantityTag is the validator tag bound to QuantityRule by Register.
const QuantityTag = "cart_quantity"

const defaultLocale = "pt_BR"

var quantityMessages = map[string]string{
	"pt_BR": "A quantidade deve ser um número entre 1 e %d.",
	"en":    "The quantity must be a number between 1 and %d.",
}

// QuantityRule accepts numeric values in [1, Max].
type QuantityRule struct {
	Max    int
	Locale string
}

func NewQuantityRule(max int) QuantityRule {
	if max <= 0 {
		max = DefaultMaxQuantity
	}
	return QuantityRule{Max: max, Locale: defaultLocale}
}

// WithLocale returns a copy of the rule rendering messages in locale.
func (r QuantityRule) WithLocale(locale string) QuantityRule {
	r.Locale = locale
	return r
}

func (r QuantityRule) max() int {
	if r.Max <= 0 {
		return DefaultMaxQuantity
	}
	return r.Max
}

// Passes reports whether value is numeric, greater than zero and at most Max.
func (r QuantityRule) Passes(value any) bool {
	n, ok := numeric(value)
	if !ok {
		return false
	}
	return n > 0 && n <= float64(r.max())
}

// Message names the configured bound in the requested locale.
func (r QuantityRule) Message(locale string) string {
	if locale == "" {
		locale = r.Locale
	}
	tmpl, ok := quantityMessages[locale]
	if !ok {
		tmpl = quantityMessages[defaultLocale]
	}
	return fmt.Sprintf(tmpl, r.max())
}

// Validate checks value and converts it to a whole cart quantity.
func (r QuantityRule) Validate(value any) (int, error) {
	if !r.Passes(value) {
		return 0, domain.InvalidQuantity(r.Message(r.Locale))
	}
	n, _ := numeric(value)
	if n != math.Trunc(n) {
		return 0, domain.InvalidQuantity(r.Message(r.Locale))
	}
	return int(n), nil
}

// Register binds the rule to QuantityTag on v.
func (r QuantityRule) Register(v *validator.Validate) error {
	return v.RegisterValidation(QuantityTag, func(fl validator.FieldLevel) bool {
		return r.Passes(fl.Field().Interface())
	})
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case nil, bool:
		return 0, false
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false
		}
		value = v
	case []byte:
		return numeric(string(v))
	case json.Number:
		return numeric(string(v))
	}
	n, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
