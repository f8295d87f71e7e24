// Package validate runs struct-tag validation on built snapshots and maps
// failures onto errs.ValidationErrors.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/id"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())

		// Report json names so errors match the serialized snapshot.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// IDs validate as their string form; the nil ID is "".
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if i, ok := field.Interface().(id.ID); ok {
				return i.String()
			}
			return nil
		}, id.ID{})
	})
	return v
}

// Struct validates s and returns errs.ValidationErrors on failure.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	out := make(errs.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errs.ValidationError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the root struct name from the namespace: "Invoice.items[0].quantity" → "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "gtefield":
		return "must not be before " + fe.Param()
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
