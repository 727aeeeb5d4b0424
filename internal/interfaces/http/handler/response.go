package handler

import "github.com/lostcode-dev/cashdesk/internal/interfaces/http/dto"

// Response shapes referenced by the swagger annotations on the handlers.
// Runtime responses are built through dto; these exist so the generated
// OpenAPI document shows the envelope with a concrete data type.

// APIResponse is the standard envelope with a typed data field.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope returned on any failed request.
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse is the envelope for operations with no result body.
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
