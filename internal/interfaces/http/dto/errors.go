package dto

import (
	"net/http"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from shared and issuance.
const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInvalidToken  = "INVALID_TOKEN"
	ErrCodeTokenExpired  = "TOKEN_EXPIRED"
	ErrCodeTokenNotValid = "TOKEN_NOT_VALID"
	ErrCodeTooLarge      = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidToken:  http.StatusUnauthorized,
	ErrCodeTokenExpired:  http.StatusUnauthorized,
	ErrCodeTokenNotValid: http.StatusUnauthorized,
	ErrCodeTooLarge:      http.StatusRequestEntityTooLarge,

	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeInvalidInput:      http.StatusBadRequest,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeConflict:          http.StatusConflict,
	shared.CodeUnauthorized:      http.StatusUnauthorized,
	shared.CodeForbidden:         http.StatusForbidden,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,
	shared.CodeTransactionFailed: http.StatusInternalServerError,

	issuance.CodeDuplicateReference: http.StatusConflict,
	issuance.CodeBridgeCancelled:    http.StatusUnprocessableEntity,
	issuance.CodeBridgeFailure:      http.StatusBadGateway,
	issuance.CodeBridgeTimeout:      http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
