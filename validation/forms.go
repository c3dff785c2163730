// Package validation holds the form rules checked before any gateway call is made
package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	passwordMinLength = 8
	nameMinLength     = 2
	nameMaxLength     = 50
	nicknameMinLength = 2
	nicknameMaxLength = 30
	titleMaxLength    = 50
	detailMaxLength   = 200
	codeMaxLength     = 12
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Email is required"),
		validation.Match(emailPattern).Error("Invalid email format"),
	}
}

func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Password is required"),
		validation.RuneLength(passwordMinLength, 0).Error("Password must be at least 8 characters"),
	}
}

func NameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Name is required"),
		validation.RuneLength(nameMinLength, nameMaxLength).Error("Name must be between 2 and 50 characters"),
	}
}

func NicknameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Nickname is required"),
		validation.RuneLength(nicknameMinLength, nicknameMaxLength).Error("Nickname must be between 2 and 30 characters"),
	}
}

// SignUpForm is the registration form
type SignUpForm struct {
	Name            string `json:"name"`
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f *SignUpForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, NameRules()...),
		validation.Field(&f.Nickname, NicknameRules()...),
		validation.Field(&f.Email, EmailRules()...),
		validation.Field(&f.Password, PasswordRules()...),
		validation.Field(&f.ConfirmPassword,
			validation.Required.Error("Confirm password is required"),
			validation.By(func(value interface{}) error {
				if confirm, _ := value.(string); confirm != f.Password {
					return validation.NewError("validation_password_mismatch", "Passwords do not match")
				}
				return nil
			}),
		),
	)
}

// SignInForm accepts an email or nickname as identification
type SignInForm struct {
	Identification string `json:"identification"`
	Password       string `json:"password"`
}

func (f *SignInForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Identification, validation.Required.Error("Identification is required")),
		validation.Field(&f.Password, validation.Required.Error("Password is required")),
	)
}

type VerifyEmailForm struct {
	Email string `json:"email"`
	Code  string `json:"verification_code"`
}

func (f *VerifyEmailForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Email, EmailRules()...),
		validation.Field(&f.Code,
			validation.Required.Error("Verification code is required"),
			validation.RuneLength(1, codeMaxLength).Error("Verification code is too long"),
		),
	)
}

// ProfileForm edits the display name and nickname
type ProfileForm struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

func (f *ProfileForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, NameRules()...),
		validation.Field(&f.Nickname, NicknameRules()...),
	)
}

type APIKeyForm struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
}

func (f *APIKeyForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title,
			validation.Required.Error("Title is required"),
			validation.RuneLength(1, titleMaxLength).Error("Title must be no more than 50 characters"),
		),
		validation.Field(&f.Description,
			validation.RuneLength(0, detailMaxLength).Error("Description must be no more than 200 characters"),
		),
	)
}

// FieldErrors flattens a validation error into field name to message
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var errs validation.Errors
	if !errors.As(err, &errs) {
		if err != nil {
			out[""] = err.Error()
		}
		return out
	}
	for field, fieldErr := range errs {
		if fieldErr != nil {
			out[field] = fieldErr.Error()
		}
	}
	return out
}

// Message renders a validation error as one line, fields in name order
func Message(err error) string {
	fields := FieldErrors(err)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	messages := make([]string, 0, len(names))
	for _, name := range names {
		messages = append(messages, fields[name])
	}
	return strings.Join(messages, "; ")
}
