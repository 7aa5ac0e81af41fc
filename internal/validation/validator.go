// Package validation checks form input before it is sent to the library service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/libraryhub/libraryhub-web/internal/errors"
)

var rollNoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]*$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for library forms.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names so messages match the field names users see in forms.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// notblank rejects whitespace-only strings, which "required" lets through.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("rollno", func(fl validator.FieldLevel) bool {
		return rollNoPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a *errors.Error of KindValidation.
// The message names the first failing field; Details holds every field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domainerrors.Validation(err.Error())
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	order := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		if _, seen := fieldErrors[e.Field()]; !seen {
			order = append(order, e.Field())
		}
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	first := order[0]
	msg := fmt.Sprintf("%s %s", first, fieldErrors[first])
	if len(order) > 1 {
		rest := slices.Clone(order[1:])
		slices.Sort(rest)
		msg += fmt.Sprintf(" (also check: %s)", strings.Join(rest, ", "))
	}

	return domainerrors.ValidationWithDetails(msg, fieldErrors)
}

// FieldErrors extracts per-field messages from a validation error.
func FieldErrors(err error) map[string]string {
	var e *domainerrors.Error
	if !errors.As(err, &e) {
		return nil
	}
	fields, _ := e.Details.(map[string]string)
	return fields
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "rollno":
		return "must contain only letters, digits, dashes or slashes"
	default:
		return "is invalid"
	}
}
