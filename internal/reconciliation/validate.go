package reconciliation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Decimals are validated in their exact string form so that range rules
	// never go through a float.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}

		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("dgt", decimalRule(func(c int) bool { return c > 0 }))
	_ = v.RegisterValidation("dgte", decimalRule(func(c int) bool { return c >= 0 }))

	return v
}

// decimalRule compares the field against the tag parameter, both parsed as
// decimals, and passes ok the result of Cmp.
func decimalRule(ok func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}

		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}

		return ok(d.Cmp(bound))
	}
}

// validationError converts the first validator failure into a ValidationError
// with a path relative to the validated struct, e.g. "Items[2].Quantity".
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]

	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	return &ValidationError{Field: field, Message: ruleMessage(fe)}
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}

		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt", "dgt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte", "dgte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}

	return fmt.Sprintf("failed %q validation", fe.Tag())
}
