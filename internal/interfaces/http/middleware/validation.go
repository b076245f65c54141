package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// SetupValidator configures the validator with custom tags
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// BindAndValidate decodes the JSON body into obj and runs the binding rules.
// Failures come back as a ValidationError with one issue per field.
func BindAndValidate(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	return ToValidationError(err)
}

// ToValidationError converts binding and decoding failures
func ToValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		issues := make([]shared.ValidationIssue, 0, len(validationErrors))
		for _, e := range validationErrors {
			issues = append(issues, shared.ValidationIssue{
				Type:    shared.IssueInvalidData,
				Message: getValidationMessage(e),
				Path:    fieldPath(e.Namespace()),
			})
		}
		return shared.NewValidationError(issues...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return shared.NewInvalidDataError(typeErr.Field, "Expected a value of type "+typeErr.Type.String())
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return shared.NewInvalidDataError("body", "Malformed JSON body")
	}
	if errors.Is(err, io.EOF) {
		return shared.NewInvalidDataError("body", "Request body is required")
	}
	return shared.NewInvalidDataError("body", err.Error())
}

// fieldPath turns "CreateCartRequest.items[0].quantity" into "items.0.quantity"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		switch e.Kind() {
		case reflect.String:
			return "Must be at least " + e.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		switch e.Kind() {
		case reflect.String:
			return "Must be at most " + e.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "url":
		return "Invalid URL format"
	case "iso4217":
		return "Must be an ISO 4217 currency code"
	case "iso3166_1_alpha2":
		return "Must be an ISO 3166 alpha-2 country code"
	default:
		return "Invalid value"
	}
}
