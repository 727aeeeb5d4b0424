package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setJWTContext injects the identity keys the JWT middleware would set for
// an authenticated request.
func setJWTContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set("jwt_tenant_id", tenantID.String())
	c.Set("jwt_user_id", userID.String())
}

func newHandlerContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/cash-sessions", nil)
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetTenantID_FromJWTContext(t *testing.T) {
	c, _ := newHandlerContext(t)
	tenantID := uuid.New()
	setJWTContext(c, tenantID, uuid.New())

	got, err := getTenantID(c)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestGetTenantID_MissingFailsClosed(t *testing.T) {
	c, _ := newHandlerContext(t)

	// No tenant in context and a forged header must not substitute one.
	c.Request.Header.Set("X-Tenant-ID", uuid.NewString())

	_, err := getTenantID(c)
	assert.Error(t, err)
}

func TestGetTenantID_MalformedClaim(t *testing.T) {
	c, _ := newHandlerContext(t)
	c.Set("jwt_tenant_id", "not-a-uuid")

	_, err := getTenantID(c)
	assert.Error(t, err)
}

func TestGetUserID_FromJWTContext(t *testing.T) {
	c, _ := newHandlerContext(t)
	userID := uuid.New()
	setJWTContext(c, uuid.New(), userID)

	got, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGetUserID_MissingFailsClosed(t *testing.T) {
	c, _ := newHandlerContext(t)
	c.Request.Header.Set("X-User-ID", uuid.NewString())

	_, err := getUserID(c)
	assert.Error(t, err)
}

func TestGetRequestID_PrefersContextOverHeader(t *testing.T) {
	c, _ := newHandlerContext(t)
	c.Request.Header.Set(RequestIDKey, "header-id")
	c.Set(RequestIDKey, "ctx-id")

	assert.Equal(t, "ctx-id", getRequestID(c))
}

func TestGetRequestID_FallsBackToHeader(t *testing.T) {
	c, _ := newHandlerContext(t)
	c.Request.Header.Set(RequestIDKey, "header-id")

	assert.Equal(t, "header-id", getRequestID(c))
}

func TestBaseHandler_SuccessEnvelope(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	h.Success(c, map[string]string{"status": "OPEN"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	h.SuccessWithMeta(c, []string{"a", "b"}, 42, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_CreatedAndNoContent(t *testing.T) {
	var h BaseHandler

	c, w := newHandlerContext(t)
	h.Created(c, map[string]string{"id": uuid.NewString()})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newHandlerContext(t)
	h.NoContent(c)
	// c.Status defers the header write; the engine would flush it after the
	// handler chain, so do it explicitly outside a full router.
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)
	c.Set(RequestIDKey, "req-abc-123")

	h.Error(c, http.StatusConflict, "SESSION_ALREADY_OPEN", "tenant already has an open session")

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SESSION_ALREADY_OPEN", resp.Error.Code)
	assert.Equal(t, "req-abc-123", resp.Error.RequestID)
}

func TestBaseHandler_ErrorWithCodeDerivesStatus(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	h.ErrorWithCode(c, dto.ErrCodeNotFound, "session not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBaseHandler_StatusShorthands(t *testing.T) {
	tests := []struct {
		name       string
		fire       func(h *BaseHandler, c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"not found", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unauthorized", func(h *BaseHandler, c *gin.Context) { h.Unauthorized(c, "nope") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"forbidden", func(h *BaseHandler, c *gin.Context) { h.Forbidden(c, "nope") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"conflict", func(h *BaseHandler, c *gin.Context) { h.Conflict(c, "dup") }, http.StatusConflict, dto.ErrCodeConflict},
		{"unprocessable", func(h *BaseHandler, c *gin.Context) { h.UnprocessableEntity(c, "SESSION_NOT_OPEN", "closed") }, http.StatusUnprocessableEntity, "SESSION_NOT_OPEN"},
		{"internal", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"rate limited", func(h *BaseHandler, c *gin.Context) { h.TooManyRequests(c, "slow down") }, http.StatusTooManyRequests, dto.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h BaseHandler
			c, w := newHandlerContext(t)

			tt.fire(&h, c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeEnvelope(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_ValidationError(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	h.ValidationError(c, []dto.ValidationDetail{
		{Field: "opening_amount", Message: "Must be greater than or equal to 0"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "opening_amount", resp.Error.Details[0].Field)
}

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	err := shared.NewDomainError("NOT_FOUND", "receivable not found")
	h.HandleError(c, err)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "receivable not found", resp.Error.Message)
}

func TestBaseHandler_HandleError_WrappedDomainError(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	inner := shared.NewDomainError("INVALID_INPUT", "counted amount is negative")
	h.HandleError(c, wrapErr(inner))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "counted amount is negative", resp.Error.Message)
}

func TestBaseHandler_HandleError_UnknownErrorIsOpaque(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	h.HandleError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, assert.AnError.Error())
}

func TestBaseHandler_HandleError_NilIsNoop(t *testing.T) {
	var h BaseHandler
	c, w := newHandlerContext(t)

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

type wrappedError struct{ inner error }

func wrapErr(err error) error { return &wrappedError{err} }

func (w *wrappedError) Error() string { return "persisting session: " + w.inner.Error() }
func (w *wrappedError) Unwrap() error { return w.inner }
