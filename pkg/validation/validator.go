package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// DateLayouts are the accepted layouts for date fields, tried in order
var DateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Rule names reported in FieldError.Rule
const (
	RuleRequired = "required"
	RuleEmail    = "email"
	RuleOneOf    = "one_of"
	RulePositive = "positive"
	RuleMinItems = "min_items"
	RuleDate     = "date"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// Result collects field errors for a single request
type Result struct {
	Errors []FieldError
}

// New returns an empty result
func New() *Result {
	return &Result{}
}

// Struct checks s against its `validate` tags
func Struct(s interface{}) *Result {
	r := New()
	r.Struct(s)
	return r
}

// Valid reports whether no errors were recorded
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Add records a field error
func (r *Result) Add(field, rule, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Rule: rule, Message: message})
}

// Struct records every tag violation of s
func (r *Result) Struct(s interface{}) {
	r.collect("", validate.Struct(s))
}

// Var checks a single value against tag, reporting failures under field
func (r *Result) Var(field string, value interface{}, tag string) {
	r.collect(field, validate.Var(value, tag))
}

func (r *Result) collect(field string, err error) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		r.Add(field, "invalid", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		name := fe.Field()
		if field != "" {
			name = field
		}
		r.Errors = append(r.Errors, translate(name, fe))
	}
}

// translate maps a validator failure onto the rule names and messages
// clients already rely on
func translate(field string, fe validator.FieldError) FieldError {
	switch fe.Tag() {
	case "required", "notblank":
		return FieldError{Field: field, Rule: RuleRequired, Message: fmt.Sprintf("%s is required", field)}
	case "email":
		return FieldError{Field: field, Rule: RuleEmail, Message: "Invalid email format"}
	case "oneof":
		allowed := strings.Join(strings.Fields(fe.Param()), ", ")
		return FieldError{Field: field, Rule: RuleOneOf, Message: fmt.Sprintf("%s must be one of: %s", field, allowed)}
	case "gt", "gte":
		return FieldError{Field: field, Rule: RulePositive, Message: fmt.Sprintf("%s must be a positive number", field)}
	case "min":
		if fe.Kind() == reflect.Slice {
			return FieldError{Field: field, Rule: RuleMinItems, Message: fmt.Sprintf("%s must contain at least %s id", field, fe.Param())}
		}
	case "date":
		return FieldError{Field: field, Rule: RuleDate, Message: fmt.Sprintf("%s must be a date", field)}
	}
	return FieldError{Field: field, Rule: fe.Tag(), Message: fmt.Sprintf("%s failed the %s check", field, fe.Tag())}
}

// Required rejects empty or whitespace-only values
func (r *Result) Required(field, value string) {
	r.Var(field, value, "notblank")
}

// Email rejects malformed addresses. Empty values are left to Required.
func (r *Result) Email(field, value string) {
	r.Var(field, value, "omitempty,email")
}

// OneOf rejects values outside the allowed set. Empty values are left to Required.
func (r *Result) OneOf(field, value string, allowed ...string) {
	r.Var(field, value, "omitempty,oneof="+strings.Join(allowed, " "))
}

// Positive rejects ids below 1
func (r *Result) Positive(field string, value int64) {
	r.Var(field, value, "gt=0")
}

// Date rejects values that match none of DateLayouts. Empty values are accepted.
func (r *Result) Date(field, value string) {
	r.Var(field, value, "omitempty,date")
}

// ParseDate parses value with the first matching layout in DateLayouts
func ParseDate(value string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", value)
}
