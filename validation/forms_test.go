package validation_test

import (
	"strings"
	"testing"

	"github.com/sekai-set-on/web-portal/validation"
	"github.com/stretchr/testify/require"
)

func TestSignUpForm(t *testing.T) {
	valid := validation.SignUpForm{
		Name:            "Aiko",
		Nickname:        "aiko",
		Email:           "aiko@example.jp",
		Password:        "password123",
		ConfirmPassword: "password123",
	}

	tests := []struct {
		name   string
		mutate func(f *validation.SignUpForm)
		field  string
		msg    string
	}{
		{"missing name", func(f *validation.SignUpForm) { f.Name = "" }, "name", "Name is required"},
		{"short nickname", func(f *validation.SignUpForm) { f.Nickname = "a" }, "nickname", "Nickname must be between 2 and 30 characters"},
		{"bad email", func(f *validation.SignUpForm) { f.Email = "aiko@example" }, "email", "Invalid email format"},
		{"short password", func(f *validation.SignUpForm) { f.Password, f.ConfirmPassword = "short", "short" }, "password", "Password must be at least 8 characters"},
		{"mismatched confirmation", func(f *validation.SignUpForm) { f.ConfirmPassword = "password124" }, "confirmPassword", "Passwords do not match"},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)

			err := f.Validate()

			require.Error(t, err)
			require.Equal(t, tt.msg, validation.FieldErrors(err)[tt.field])
		})
	}
}

func TestProfileFormCountsRunes(t *testing.T) {
	f := validation.ProfileForm{Name: "愛子", Nickname: strings.Repeat("あ", 30)}
	require.NoError(t, f.Validate())

	f.Nickname = strings.Repeat("あ", 31)
	require.Equal(t, "Nickname must be between 2 and 30 characters", validation.Message(f.Validate()))
}

func TestMessageIsOrderedByField(t *testing.T) {
	f := validation.SignInForm{}

	require.Equal(t, "Identification is required; Password is required", validation.Message(f.Validate()))
	require.Empty(t, validation.Message(nil))
}

func TestAPIKeyForm(t *testing.T) {
	require.NoError(t, (&validation.APIKeyForm{Title: "CI"}).Validate())
	require.Equal(t, "Title is required", validation.Message((&validation.APIKeyForm{}).Validate()))
}
