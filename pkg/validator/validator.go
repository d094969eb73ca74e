package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// emailPattern matches local@domain.tld with no whitespace. Whitespace
// includes the Unicode separators and BOM, not just ASCII.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

const (
	TagEmail    = "roster_email"
	TagNotBlank = "notblank"
)

// IsEmail reports whether s matches the basic local@domain.tld shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// RegisterRules installs the custom tags and json-based field naming on v.
// It is used both for gin's binding engine and for standalone validators.
func RegisterRules(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation(TagNotBlank, validators.NotBlank); err != nil {
		return fmt.Errorf("register %s: %w", TagNotBlank, err)
	}

	err := v.RegisterValidation(TagEmail, func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", TagEmail, err)
	}
	return nil
}

// New returns a validator with RegisterRules applied.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterRules(v); err != nil {
		panic(err)
	}
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// FieldMessages turns validation errors into a field -> message map keyed by
// the json name of the field. Non-validation errors yield nil.
func FieldMessages(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	messages := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		if _, seen := messages[fieldError.Field()]; seen {
			continue
		}
		messages[fieldError.Field()] = getFieldErrorMessage(fieldError)
	}
	return messages
}

func FormatValidationError(err error) string {
	messages := FieldMessages(err)
	if messages == nil {
		return err.Error()
	}

	fields := make([]string, 0, len(messages))
	for field := range messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, messages[field])
	}
	return strings.Join(parts, "; ")
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required", TagNotBlank:
		return fmt.Sprintf("%s is required", field)
	case "email", TagEmail:
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"name":             "Name",
		"roll_number":      "Roll number",
		"class":            "Class",
		"email":            "Email",
		"phone":            "Phone",
		"address":          "Address",
		"date_of_birth":    "Date of birth",
		"password":         "Password",
		"confirm_password": "Confirm password",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
