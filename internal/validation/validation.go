package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct runs the `validate` tags of v and flattens the failures into one error.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ParseAmount reads a money amount from transport input. NaN, infinities and
// exponent notation are refused.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &models.AmountError{Reason: "missing"}
	}
	if strings.ContainsAny(raw, "eE") || strings.Contains(strings.ToLower(raw), "nan") || strings.Contains(strings.ToLower(raw), "inf") {
		return decimal.Zero, &models.AmountError{Reason: fmt.Sprintf("%q is not a finite decimal", raw)}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &models.AmountError{Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	if !d.IsPositive() {
		return decimal.Zero, &models.AmountError{Amount: d, Reason: "must be positive"}
	}
	return d, nil
}
