package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ruleMessages renders the query rules portfolio requests declare. Any other
// tag gets a generic message.
var ruleMessages = map[string]func(field, param string) string{
	"oneof": func(f, p string) string {
		return fmt.Sprintf("%s must be one of: %s", f, strings.ReplaceAll(p, " ", ", "))
	},
	"numeric":  func(f, _ string) string { return f + " must be a decimal number" },
	"alphanum": func(f, _ string) string { return f + " must contain only letters and digits" },
	"max":      func(f, p string) string { return fmt.Sprintf("%s must be at most %s characters", f, p) },
	"gte":      func(f, p string) string { return fmt.Sprintf("%s must be at least %s", f, p) },
	"lte":      func(f, p string) string { return fmt.Sprintf("%s must be at most %s", f, p) },
}

// ReadAndValidateRequest binds query and body into req, fills defaults for
// fields left empty and validates the result. It returns nil when req is valid.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: ruleMessage(fe),
				Params:  ruleParams(fe),
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprintf("%v", he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func ruleMessage(fe validator.FieldError) string {
	if render, ok := ruleMessages[fe.Tag()]; ok {
		return render(fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
}

func ruleParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Split(fe.Param(), " ")}
	}
	return nil
}
