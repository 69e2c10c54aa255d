package usecase

import (
	"errors"
	"reflect"
	"strings"

	"todo_client/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired         = "This field is required"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
	MsgPasswordMismatch = "Passwords do not match"
	msgInvalid          = "Invalid value"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name so messages key the same way the
	// server's do.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldMessages overrides tagMessages for a single field, keyed "field.tag".
var fieldMessages = map[string]string{
	"password.min":         MsgPasswordTooShort,
	"new_password.min":     MsgPasswordTooShort,
	"username.min":         "Username must be at least 3 characters long",
	"username.max":         "Username must not exceed 50 characters",
	"name.min":             "Name must be at least 2 characters long",
	"name.max":             "Name must not exceed 50 characters",
	"bio.max":              "Bio must not exceed 500 characters",
	"task.required":        "Task cannot be empty",
	"task.max":             "Task must not exceed 500 characters",
	"description.max":      "Description must not exceed 500 characters",
	"priority.oneof":       "Priority must be low, medium or high",
	"new_password.nefield": "New password must differ from the current one",
}

var tagMessages = map[string]string{
	"required":         MsgRequired,
	"required_without": MsgRequired,
	"email":            MsgEmailInvalid,
	"eqfield":          MsgPasswordMismatch,
}

func messageFor(field, tag string) string {
	if msg, ok := fieldMessages[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := tagMessages[tag]; ok {
		return msg
	}
	return msgInvalid
}

// collect folds validator output into v. Errors from Var carry no field
// name, so field names the value being checked in that case.
func collect(v *domain.ValidationError, field string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.Add(field, err.Error())
		return
	}
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" {
			name = field
		}
		v.Add(name, messageFor(name, fe.Tag()))
	}
}

type loginForm struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// ValidateLogin requires an identifier (username or email) and a password.
// Password length is not checked here: accounts may predate the rule.
func ValidateLogin(creds domain.Credentials) error {
	v := &domain.ValidationError{}
	collect(v, "", validate.Struct(loginForm{
		Username: strings.TrimSpace(creds.Username),
		Email:    strings.TrimSpace(creds.Email),
		Password: creds.Password,
	}))
	return v.OrNil()
}

type registerForm struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Name            string `json:"name" validate:"omitempty,min=2,max=50"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"omitempty,eqfield=Password"`
}

func ValidateRegistration(req domain.RegisterRequest) error {
	v := &domain.ValidationError{}
	collect(v, "", validate.Struct(registerForm{
		Username:        strings.TrimSpace(req.Username),
		Email:           strings.TrimSpace(req.Email),
		Name:            strings.TrimSpace(req.Name),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}))
	return v.OrNil()
}

func ValidateProfilePatch(patch domain.ProfilePatch) error {
	v := &domain.ValidationError{}
	if patch.Name == nil && patch.Bio == nil {
		v.Add("profile", "No fields to update")
		return v
	}
	if patch.Name != nil {
		collect(v, "name", validate.Var(strings.TrimSpace(*patch.Name), "required,min=2,max=50"))
	}
	if patch.Bio != nil {
		collect(v, "bio", validate.Var(*patch.Bio, "max=500"))
	}
	return v.OrNil()
}

type passwordChangeForm struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func ValidatePasswordChange(current, next, confirm string) error {
	v := &domain.ValidationError{}
	collect(v, "", validate.Struct(passwordChangeForm{
		CurrentPassword: current,
		NewPassword:     next,
		ConfirmPassword: confirm,
	}))
	return v.OrNil()
}

// ValidateTask checks an already trimmed task text.
func ValidateTask(task string) error {
	v := &domain.ValidationError{}
	collect(v, "task", validate.Var(task, "required,max=500"))
	return v.OrNil()
}

func ValidateTodoPatch(patch domain.TodoPatch) error {
	if patch.IsEmpty() {
		return &domain.ValidationError{Fields: map[string]string{"todo": "No fields to update"}}
	}
	v := &domain.ValidationError{}
	if patch.Task != nil {
		collect(v, "task", validate.Var(strings.TrimSpace(*patch.Task), "required,max=500"))
	}
	if patch.Priority != nil {
		collect(v, "priority", validate.Var(string(*patch.Priority), "oneof=low medium high"))
	}
	if patch.Description != nil {
		collect(v, "description", validate.Var(*patch.Description, "max=500"))
	}
	return v.OrNil()
}
