package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/masterchelly/microsites/errs"
)

// Validator checks tagged request structs. Field names in errors come from
// the json tag.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	mustRegister("icon", func(fl validator.FieldLevel) bool {
		return ValidIcon(fl.Field().String())
	})
	mustRegister("embed_url", func(fl validator.FieldLevel) bool {
		return AllowedEmbed(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a 400 *errs.ApiErr naming the first
// offending field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.NewBadRequestError(err.Error())
	}

	fe := fieldErrs[0]
	apiErr := errs.NewValidationError(fe.Field(), message(fe))
	if len(fieldErrs) > 1 {
		others := make([]string, 0, len(fieldErrs)-1)
		for _, other := range fieldErrs[1:] {
			others = append(others, other.Field())
		}
		apiErr.Details = "also invalid: " + strings.Join(others, ", ")
	}
	return apiErr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must be at least %s long", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must be at most %s long", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return "Must be a valid id"
	case "email":
		return "Must be a valid email address"
	case "icon":
		return "Please enter a valid emoji (maximum 10 characters)"
	case "embed_url":
		return "EMBED_HOST_NOT_ALLOWED"
	case "dive":
		return "Invalid list entry"
	default:
		return fmt.Sprintf("Invalid value (failed on '%s')", fe.Tag())
	}
}
