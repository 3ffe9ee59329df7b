package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"required"`
}

type synthRequest struct {
	Text  string `json:"text" validate:"required,max=5000"`
	Voice string `json:"voice" validate:"required,voice"`
	Tone  string `json:"tone,omitempty" validate:"omitempty,tone"`
}

func TestValidator_Success(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(registerRequest{
		Email:    "test@example.com",
		Password: "password123",
		Name:     "Test User",
	}))
	assert.NoError(t, v.Validate(synthRequest{Text: "Hello.", Voice: "zira", Tone: "calm"}))
	assert.NoError(t, v.Validate(synthRequest{Text: "Hello.", Voice: "david"}))
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
	}{
		{"missing name", registerRequest{Email: "a@b.co", Password: "password123"}, "name"},
		{"invalid email", registerRequest{Email: "nope", Password: "password123", Name: "x"}, "email"},
		{"short password", registerRequest{Email: "a@b.co", Password: "short", Name: "x"}, "password"},
		{"unknown voice", synthRequest{Text: "Hi.", Voice: "hal"}, "voice"},
		{"unknown tone", synthRequest{Text: "Hi.", Voice: "zira", Tone: "sarcastic"}, "tone"},
		{"text too long", synthRequest{Text: strings.Repeat("a", 5001), Voice: "zira"}, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	err := validation.New().Validate(registerRequest{Password: "password123", Name: "Test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "Email")
}
