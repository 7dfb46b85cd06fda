package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report form field names instead of struct field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return v
}

type PostForm struct {
	Subject string `form:"subject" validate:"required,max=200"`
	Content string `form:"content" validate:"required"`
}

func parsePostForm(r *http.Request) PostForm {
	return PostForm{
		Subject: strings.TrimSpace(r.PostFormValue("subject")),
		Content: strings.TrimSpace(r.PostFormValue("content")),
	}
}

type CommentForm struct {
	Content string `form:"content" validate:"required"`
}

func parseCommentForm(r *http.Request) CommentForm {
	return CommentForm{
		Content: strings.TrimSpace(r.PostFormValue("content")),
	}
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func parseLoginForm(r *http.Request) LoginForm {
	return LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
}

type SignupForm struct {
	Username  string `form:"username"  validate:"required,min=3,max=150,alphanum"`
	Email     string `form:"email"     validate:"omitempty,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func parseSignupForm(r *http.Request) SignupForm {
	return SignupForm{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
}

// FormErrors maps a form field name to its error message. The empty key holds form-wide errors.
type FormErrors map[string]string

func (fe FormErrors) Add(field, message string) {
	if _, exists := fe[field]; !exists {
		fe[field] = message
	}
}

// validateForm returns nil when form is valid.
func validateForm(form any) (FormErrors, error) {
	err := validate.Struct(form)
	if err == nil {
		return nil, nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, fmt.Errorf("failed to validate form: %w", err)
	}

	formErrors := make(FormErrors, len(validationErrs))

	for _, fieldErr := range validationErrs {
		formErrors.Add(fieldErr.Field(), fieldErrorMessage(fieldErr))
	}

	return formErrors, nil
}

func fieldErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fieldErr.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fieldErr.Param())
	case "email":
		return "Enter a valid email address."
	case "alphanum":
		return "Enter a value containing only letters and numbers."
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return "Enter a valid value."
	}
}
