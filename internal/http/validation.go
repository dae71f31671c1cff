package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/nurpe/dossiers-service/internal/model"
)

type validationDetail struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

var registerOnce sync.Once

// registerValidation teaches gin's validator to report JSON field names and
// to validate the value carried by model.Optional fields.
func registerValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterCustomTypeFunc(optionalValue[string], model.Optional[string]{})
		v.RegisterCustomTypeFunc(optionalValue[float64], model.Optional[float64]{})
		v.RegisterCustomTypeFunc(optionalValue[int], model.Optional[int]{})
	})
}

// optionalValue exposes an unset field as a nil pointer so omitempty skips it.
// An explicit null is validated as the zero value.
func optionalValue[T any](field reflect.Value) any {
	o, ok := field.Interface().(model.Optional[T])
	if !ok || !o.Set {
		return (*T)(nil)
	}
	value := o.Value
	return &value
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondValidation(c, validationDetail{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: typeErr.Field + " must be of type " + jsonTypeName(typeErr.Type),
		})
		return
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	details := make([]validationDetail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, validationDetail{
			Field:   fieldPath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: ruleMessage(fe),
		})
	}
	respondValidation(c, details...)
}

func respondValidation(c *gin.Context, details ...validationDetail) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Validation error", "details": details})
}

// fieldPath drops the request type name: createDossierRequest.tenant.email -> tenant.email.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleMessage(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " cannot be blank"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " cannot be empty"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.Kind().String()
	}
}
