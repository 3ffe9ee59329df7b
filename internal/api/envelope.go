package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/http/response"
)

// EnvelopeVersion is sent as "v" on every response body.
const EnvelopeVersion = response.EnvelopeVersion

// APIEnvelope wraps successful responses and plain errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the API envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	if len(status) > 0 && status[0] != '2' {
		return APIEnvelope{Version: EnvelopeVersion, Data: v}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
