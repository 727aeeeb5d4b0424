package dto

import "net/http"

// API-level error codes use the ERR_ prefix. Domain codes raised by the cash
// session and receivable aggregates keep their original spelling so clients
// can branch on them.

// Transport and infrastructure codes.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Authentication and authorization codes.
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
)

// Resource and state codes.
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
)

// Cash desk domain codes, passed through unnormalized.
const (
	// CodeSessionAlreadyOpen: the tenant already has an open session.
	CodeSessionAlreadyOpen = "SESSION_ALREADY_OPEN"
	// CodeSessionNotOpen: the operation needs an open session.
	CodeSessionNotOpen = "SESSION_NOT_OPEN"
	// CodeSessionNotFound: no such session for the tenant.
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	// CodeReceivableNotFound: no such receivable for the tenant.
	CodeReceivableNotFound = "RECEIVABLE_NOT_FOUND"
	// CodeReceivableCancelled: payment against a cancelled receivable.
	CodeReceivableCancelled = "RECEIVABLE_CANCELLED"
	// CodeInvalidTransition: disallowed receivable status change.
	CodeInvalidTransition = "INVALID_TRANSITION"
	// CodeExceedsOutstanding: a single receipt would overpay the receivable.
	CodeExceedsOutstanding = "EXCEEDS_OUTSTANDING"
	// CodeAllocationExceedsAmount: a batch payment overpays the selection.
	CodeAllocationExceedsAmount = "ALLOCATION_EXCEEDS_AMOUNT"
)

// ErrorCodeHTTPStatus maps every code the API emits to its HTTP status.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	CodeSessionAlreadyOpen:      http.StatusConflict,
	CodeSessionNotOpen:          http.StatusUnprocessableEntity,
	CodeSessionNotFound:         http.StatusNotFound,
	CodeReceivableNotFound:      http.StatusNotFound,
	CodeReceivableCancelled:     http.StatusUnprocessableEntity,
	CodeInvalidTransition:       http.StatusUnprocessableEntity,
	CodeExceedsOutstanding:      http.StatusUnprocessableEntity,
	CodeAllocationExceedsAmount: http.StatusUnprocessableEntity,

	// Domain input validation codes.
	"INVALID_AMOUNT":      http.StatusBadRequest,
	"INVALID_OPERATOR":    http.StatusBadRequest,
	"INVALID_CUSTOMER":    http.StatusBadRequest,
	"INVALID_DESCRIPTION": http.StatusBadRequest,
	"INVALID_METHOD":      http.StatusBadRequest,
	"INVALID_REASON":      http.StatusBadRequest,
}

// GetHTTPStatus resolves the status for a code, defaulting to 500 for codes
// the map does not know.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping translates the bare codes the domain layer raises
// into the ERR_ form the API exposes. Domain codes with an entry in
// ErrorCodeHTTPStatus are deliberately absent so they pass through unchanged.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode maps a bare domain code to its ERR_ form, returning
// unknown codes as-is.
func NormalizeErrorCode(code string) string {
	if normalized, ok := LegacyErrorCodeMapping[code]; ok {
		return normalized
	}
	return code
}
