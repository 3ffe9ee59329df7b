package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeNotFound:           http.StatusNotFound,
		CodeAlreadyExists:      http.StatusConflict,
		CodeInvalidCredentials: http.StatusUnauthorized,
		CodeValidation:         http.StatusBadRequest,
		CodeNoSegments:         http.StatusBadRequest,
		CodeNoAudio:            http.StatusInternalServerError,
		CodeMergeFailed:        http.StatusInternalServerError,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeUnavailable:        http.StatusServiceUnavailable,
		Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, code.HTTPStatus(), code)
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("narrate: %w", Wrap(stderrors.New("disk full"), CodeMergeFailed, "merge step failed"))

	assert.True(t, Is(err, ErrMergeFailed))
	assert.False(t, Is(err, ErrNoAudio))
	assert.Contains(t, err.Error(), "disk full")
}

func TestError_WithDetails(t *testing.T) {
	base := Validation("bad input")
	detailed := base.WithDetails(map[string]string{"text": "is required"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"text": "is required"}, detailed.Details)
	assert.True(t, Is(detailed, ErrValidation))
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Internal("failed").WithCause(cause)

	assert.Same(t, cause, Unwrap(err))
	assert.Equal(t, "failed: boom", err.Error())
}
