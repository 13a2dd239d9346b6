// internal/app/system/inputval/validate.go
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string // struct field name
	Message string // user-facing message
}

// Result collects validation failures for one struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or "" if validation passed.
// Handlers typically show just the first problem on form re-render.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All returns every error message joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validate runs tag-declared rules against a struct's string fields.
//
// Rules go in a `validate` tag, comma-separated; the `label` tag supplies
// the user-facing field name. Supported rules:
//
//	required     value must be non-blank after trimming
//	max=N        value must be at most N characters
//	email        value must pass IsValidEmail
//	authmethod   value must pass IsValidAuthMethod
//	httpurl      value must pass IsValidHTTPURL
//	objectid     value must pass IsValidObjectID
//
// Rules other than required are skipped on blank values, so optional
// fields validate only when present; combine with required as needed.
func Validate(v interface{}) *Result {
	result := &Result{}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return result
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}

		value := rv.Field(i).String()
		trimmed := strings.TrimSpace(value)

		for _, rule := range strings.Split(tag, ",") {
			rule = strings.TrimSpace(rule)

			switch {
			case rule == "required":
				if trimmed == "" {
					result.add(field.Name, label+" is required.")
				}
			case strings.HasPrefix(rule, "max="):
				n, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
				if err != nil {
					continue
				}
				if len(trimmed) > n {
					result.add(field.Name, fmt.Sprintf("%s must be at most %d characters.", label, n))
				}
			case rule == "email":
				if trimmed != "" && !IsValidEmail(trimmed) {
					result.add(field.Name, "A valid email address is required.")
				}
			case rule == "authmethod":
				if trimmed != "" && !IsValidAuthMethod(trimmed) {
					result.add(field.Name, label+" is not a supported sign-in method.")
				}
			case rule == "httpurl":
				if trimmed != "" && !IsValidHTTPURL(trimmed) {
					result.add(field.Name, label+" must be a valid http(s) URL.")
				}
			case rule == "objectid":
				if trimmed != "" && !IsValidObjectID(trimmed) {
					result.add(field.Name, label+" is not a valid identifier.")
				}
			}
		}
	}

	return result
}
