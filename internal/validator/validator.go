package validator

import (
	"math"
	"reflect"
	"strings"

	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the survey specific rules registered
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("answer_value", validateAnswerValue)
	validate.RegisterValidation("direction", validateDirection)
	validate.RegisterValidation("no_markup", validateNoMarkup)

	// Report json names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateAnswerValue accepts finite slider values in [0,10]
func validateAnswerValue(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Float64 && field.Kind() != reflect.Float32 {
		return false
	}
	f := field.Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f <= 10
}

func validateDirection(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d := fl.Field().Int()
		return d == -1 || d == 1
	}
	return false
}

func validateNoMarkup(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.ContainsAny(s, "<>") {
		return false
	}
	_, suspicious := utils.FindSuspiciousContent(s)
	return !suspicious
}
