// internal/handlers/validation.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages holds the client-facing message per "field.tag"
var fieldMessages = map[string]string{
	"name.required":            "Name is required",
	"name.notblank":            "Name cannot be empty",
	"email.required":           "Please provide a valid email",
	"email.email":              "Please provide a valid email",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters long",
	"role.required":            "Role must be either admin or viewer",
	"role.oneof":               "Role must be either admin or viewer",
	"currentPassword.required": "Current password is required",
	"newPassword.required":     "New password must be at least 6 characters long",
	"newPassword.min":          "New password must be at least 6 characters long",
	"refreshToken.required":    "Refresh token is required",
	"format.oneof":             "Format must be json or xlsx",
}

func init() {
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// The returned messages are client-facing; a nil slice means success.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) []string {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return []string{"Invalid request body"}
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, validationMessage(fe))
	}
	return msgs
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
