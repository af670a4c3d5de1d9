package handlers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// maxbytes limits the encoded length; bcrypt rejects passwords over 72 bytes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// validateStruct returns a message per invalid field, or nil.
func validateStruct(payload any) map[string]string {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = "The request is invalid."
		return errs
	}

	for _, fe := range validationErrors {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "notblank":
			errs[field] = fmt.Sprintf("The %s field is required.", field)
		case "email":
			errs[field] = fmt.Sprintf("The %s must be a valid email address.", field)
		case "min":
			errs[field] = fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		case "max":
			errs[field] = fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
		case "maxbytes":
			errs[field] = fmt.Sprintf("The %s may not be greater than %s bytes.", field, fe.Param())
		default:
			errs[field] = fmt.Sprintf("The %s field is invalid.", field)
		}
	}
	return errs
}
