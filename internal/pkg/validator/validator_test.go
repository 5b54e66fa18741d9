package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"required,min=8"`
	Note     string `validate:"max=3"`
}

func TestValidateReportsJSONNames(t *testing.T) {
	errs := Validate(&loginRequest{Email: "nope", Note: "long"})
	assert.Equal(t, map[string]string{
		"email":    "email",
		"password": "required",
		"Note":     "max",
	}, errs)
}

func TestValidatePasses(t *testing.T) {
	assert.Nil(t, Validate(&loginRequest{Email: "a@b.co", Password: "12345678"}))
}

func TestVar(t *testing.T) {
	assert.True(t, Var("someone@example.com", "email"))
	assert.False(t, Var("someone@", "email"))
}
