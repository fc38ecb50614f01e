package validation

import (
	"errors"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Name            string `json:"name" validate:"required,min=1,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Username        string `json:"username" validate:"omitempty,username"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(signupInput{
		Name:            "Ann",
		Email:           "ann@example.com",
		Password:        "Secr3t!pw",
		ConfirmPassword: "Secr3t!pw",
	})
	assert.NoError(t, err)
}

func TestStruct_FieldDetails(t *testing.T) {
	err := Struct(signupInput{
		Email:           "not-an-email",
		Password:        "weak",
		ConfirmPassword: "other",
		Username:        "a-b",
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)

	fields := map[string]string{}
	for _, d := range appErr.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Contains(t, fields["password"], "between 6 and 50")
	assert.Equal(t, "must match password", fields["confirm_password"])
	assert.Contains(t, fields, "username")
}
