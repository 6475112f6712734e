package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldErrors maps binding errors to {field: [messages]}, keyed by the JSON
// field name when the struct tag gives one.
func fieldErrors(err error) map[string][]string {
	out := make(map[string][]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		out[field] = append(out[field], describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return lowerFirst(fe.Field()) + " is required"
	case "email":
		return lowerFirst(fe.Field()) + " must be a valid email"
	case "max":
		return lowerFirst(fe.Field()) + " must be at most " + fe.Param() + " characters"
	case "url":
		return lowerFirst(fe.Field()) + " must be a valid URL"
	default:
		return lowerFirst(fe.Field()) + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
