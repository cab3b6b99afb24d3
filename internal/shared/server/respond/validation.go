package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Issue is one field-level validation failure.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

// Normalizer is implemented by request bodies that trim or default their
// fields before validation.
type Normalizer interface {
	Normalize()
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// BindJSON decodes the request body into obj, normalizes it and runs the
// `binding` struct tags through the validator.
func BindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return errEmptyBody
	}
	if err := json.NewDecoder(c.Request.Body).Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if n, ok := obj.(Normalizer); ok {
		n.Normalize()
	}
	return binding.Validator.ValidateStruct(obj)
}

var (
	errEmptyBody     = errors.New("request body is empty")
	errMalformedBody = errors.New("request body is not valid JSON")
)

// Issues converts a BindJSON error into itemized issues.
func Issues(err error) []Issue {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]Issue, 0, len(ve))
		for _, fe := range ve {
			out = append(out, Issue{
				Path:    []string{fe.Field()},
				Message: issueMessage(fe),
				Code:    fe.Tag(),
			})
		}
		return out
	}
	return []Issue{{Path: []string{}, Message: err.Error(), Code: "invalid_json"}}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// InvalidInput writes a 400 INPUT_INVALID response with the first issue as message.
func InvalidInput(c *gin.Context, err error) {
	issues := Issues(err)
	msg := "Invalid input"
	if len(issues) > 0 {
		msg = issues[0].Message
	}
	Error(c, http.StatusBadRequest, "INPUT_INVALID", msg, map[string]any{"issues": issues})
}
