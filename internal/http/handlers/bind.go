package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON binds and validates the body, responding with VALIDATION_ERROR
// details itself on failure. Returns false when the handler should bail.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, "VALIDATION_ERROR", "Invalid request body", parseBindError(err))
		return false
	}

	return true
}

func parseBindError(err error) interface{} {
	// validator errors carry per-field rules
	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		fields := make([]FieldError, 0, len(validationErrors))

		for _, fe := range validationErrors {
			rule := fe.Tag()
			param := fe.Param()

			fields = append(fields, FieldError{
				Field:   lowerFirst(fe.Field()),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	// a truncated body surfaces as an EOF, not a *json.SyntaxError
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		return gin.H{
			"json":  "invalid_json_type",
			"field": typeError.Field,
		}
	}

	return gin.H{"reason": err.Error()}
}

// lowerFirst turns the Go field name into its conventional json spelling.
// All request DTOs here use lowerCamel json tags matching their field names.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid uuid"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "gt":
		return "must be greater than " + param
	default:
		if param != "" {
			return "failed " + rule + " validation (" + param + ")"
		}
		return "failed " + rule + " validation"
	}
}
