package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/storyloom/internal/domain/model"
)

// NewValidator returns a validator that knows the "grade" tag and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		g, ok := fl.Field().Interface().(model.GradeLevel)
		return ok && g.Valid()
	})
	return v
}

// check runs v over s and folds field errors into a *ValidationError.
func check(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(fields))
	for _, f := range fields {
		problems = append(problems, describe(f))
	}
	return &ValidationError{Problems: problems}
}

func describe(f validator.FieldError) string {
	name := f.Field()
	switch f.Tag() {
	case "required":
		return name + " is required"
	case "grade":
		return fmt.Sprintf("%s %q is not one of K, 1-6", name, f.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, f.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, f.Param())
	}
	return fmt.Sprintf("%s failed %s", name, f.Tag())
}
