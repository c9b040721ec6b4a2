package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError describes one rejected request field
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// bindQuery fills the `query`-tagged string, *int and *float64 fields of req from the
// URL, applies `default` tags and validates the result
func bindQuery(r *http.Request, req interface{}) []ValidationError {
	q := r.URL.Query()
	v := reflect.ValueOf(req).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("query")
		if name == "" || !q.Has(name) {
			continue
		}
		raw := strings.TrimSpace(q.Get(name))
		field := v.Field(i)

		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Ptr:
			if field.Type().Elem().Kind() == reflect.Float64 {
				f, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return []ValidationError{{
						Code:    "ERR_NUMBER",
						Field:   name,
						Message: fmt.Sprintf("%s must be a number", name),
					}}
				}
				field.Set(reflect.ValueOf(&f))
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return []ValidationError{{
					Code:    "ERR_INTEGER",
					Field:   name,
					Message: fmt.Sprintf("%s must be an integer", name),
				}}
			}
			field.Set(reflect.ValueOf(&n))
		}
	}

	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}

	if err := validate.StructCtx(r.Context(), req); err != nil {
		return validationErrors(t, err)
	}
	return nil
}

func validationErrors(t reflect.Type, err error) []ValidationError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if name := sf.Tag.Get("query"); name != "" {
				field = name
			}
		}
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   field,
			Message: errorMessage(field, fe),
		})
	}
	return out
}

func errorMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
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
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
