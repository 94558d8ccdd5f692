package dto

import (
	"net/http"

	"github.com/izakgestao/backend/internal/domain/shared"
)

// HTTP-layer error codes, beyond the domain taxonomy
const (
	// ErrCodeBadRequest is used for malformed requests (bad JSON, bad uuid)
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps the domain error taxonomy onto HTTP statuses.
// Validation and not-found are the usual 400/404; CONFLICT is a 409 so
// clients can distinguish "already exists" from bad input; INVALID_STATE
// is a 422 because the request was well-formed but the aggregate refuses
// it; GATEWAY_ERROR surfaces a provider failure as 502.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:   http.StatusBadRequest,
	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeConflict:     http.StatusConflict,
	shared.CodeInvalidState: http.StatusUnprocessableEntity,
	shared.CodeGateway:      http.StatusBadGateway,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for codes outside the taxonomy
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
