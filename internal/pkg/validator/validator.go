package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Intent kind validation
	validate.RegisterValidation("intent_kind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		validKinds := []string{"BOOK_AMENITY", "CANCEL_BOOKING"}
		for _, k := range validKinds {
			if kind == k {
				return true
			}
		}
		return false
	})

	// Calendar date validation (YYYY-MM-DD)
	validate.RegisterValidation("bdate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// Wall-clock validation (HH:MM, 24-hour)
	validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Invalid identifier format"
		case "intent_kind":
			errors[field] = "Invalid intent. Must be: BOOK_AMENITY or CANCEL_BOOKING"
		case "bdate":
			errors[field] = "Invalid date. Expected YYYY-MM-DD"
		case "clock":
			errors[field] = "Invalid time. Expected HH:MM (24-hour)"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
