package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors is the error type returned when struct validation fails.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	var sb strings.Builder
	for i, failure := range v {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(failure.Field)
		sb.WriteString(" failed on ")
		sb.WriteString(failure.Tag)
		if failure.Param != "" {
			sb.WriteString("=")
			sb.WriteString(failure.Param)
		}
	}
	return sb.String()
}

var getValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so API errors match request payloads.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
})

// ValidateStruct runs struct-tag validation and converts failures into
// ValidationErrors. Any other error is returned unchanged.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, ValidationError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}
