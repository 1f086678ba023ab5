package service

import (
	"errors"
	"reflect"
	"strings"

	"menu-advisor/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tag rules and converts failures into domain errors.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make(map[string]string, len(verrs))
	quantity := false
	for _, fe := range verrs {
		details[fieldPath(fe.Namespace())] = fe.Tag()
		if fe.Field() == "quantity" {
			quantity = true
		}
	}

	if quantity {
		return model.ErrInvalidQuantity.WithDetails(details)
	}
	return model.ErrMissingField.WithDetails(details)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
