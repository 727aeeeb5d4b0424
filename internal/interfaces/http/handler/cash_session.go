package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cashdeskapp "github.com/lostcode-dev/cashdesk/internal/application/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

// IdempotencyTokenHeader carries the client-generated token that makes a
// close request safe to retry.
const IdempotencyTokenHeader = "X-Idempotency-Token"

// CashSessionHandler handles cash session API endpoints
type CashSessionHandler struct {
	BaseHandler
	service *cashdeskapp.SessionService
}

// NewCashSessionHandler creates a new CashSessionHandler
func NewCashSessionHandler(service *cashdeskapp.SessionService) *CashSessionHandler {
	return &CashSessionHandler{service: service}
}

// ===================== Request DTOs =====================

// OpenSessionRequest represents a request to open a cash session
//
//	@Description	Open cash session request
type OpenSessionRequest struct {
	OpeningAmount float64 `json:"opening_amount" binding:"min=0" example:"200.00"`
}

// CloseSessionRequest represents a request to close a cash session
//
//	@Description	Close cash session request
type CloseSessionRequest struct {
	CountedAmount float64 `json:"counted_amount" binding:"min=0" example:"1345.00"`
}

// MovementRequest represents a manual cash movement
//
//	@Description	Manual cash movement request
type MovementRequest struct {
	Kind     string  `json:"kind" binding:"required" example:"ADJUSTMENT"`
	Variant  string  `json:"variant,omitempty" example:"SANGRIA"`
	Amount   float64 `json:"amount" binding:"required,gt=0" example:"80.00"`
	Category string  `json:"category,omitempty" example:"safe_drop"`
	Method   string  `json:"method,omitempty" example:"CASH"`
	Notes    string  `json:"notes,omitempty" example:"sangria para o cofre"`
}

// AttachReceiptsResponse reports how many pending cash receipts were bound
//
//	@Description	Attach pending receipts response
type AttachReceiptsResponse struct {
	Attached int `json:"attached" example:"3"`
}

// EntryListFilter represents pagination parameters for journal listings
//
//	@Description	Journal entry list filter
type EntryListFilter struct {
	Page     int `form:"page,omitempty" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100" json:"page_size" example:"20"`
}

// ===================== Handlers =====================

// Open godoc
// @ID           openCashSession
//
//	@Summary		Open a cash session
//	@Description	Open a new cash session with a declared opening float. Fails with 409 when the tenant already has an open session.
//	@Tags			cash-sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OpenSessionRequest	true	"Opening request"
//	@Success		201		{object}	APIResponse[cashdeskapp.SessionResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions [post]
func (h *CashSessionHandler) Open(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	userID, err := getUserID(c)
	if err != nil || userID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid user")
		return
	}

	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	session, err := h.service.Open(c.Request.Context(), tenantID, cashdeskapp.OpenSessionRequest{
		OpeningAmount: toDecimal(req.OpeningAmount),
		OpenedBy:      userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, session)
}

// GetOpen godoc
// @ID           getOpenCashSession
//
//	@Summary		Get the open cash session
//	@Description	Get the tenant's currently open cash session
//	@Tags			cash-sessions
//	@Produce		json
//	@Success		200	{object}	APIResponse[cashdeskapp.SessionResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/open [get]
func (h *CashSessionHandler) GetOpen(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	session, err := h.service.GetOpen(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Get godoc
// @ID           getCashSession
//
//	@Summary		Get cash session by ID
//	@Tags			cash-sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	APIResponse[cashdeskapp.SessionResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/{id} [get]
func (h *CashSessionHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	session, err := h.service.GetByID(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// List godoc
// @ID           listCashSessions
//
//	@Summary		List cash sessions
//	@Description	Get a paginated list of cash sessions, most recently opened first
//	@Tags			cash-sessions
//	@Produce		json
//	@Param			status		query		string	false	"Filter by status"	Enums(OPEN, CLOSED)
//	@Param			opened_by	query		string	false	"Filter by operator ID"
//	@Param			from_date	query		string	false	"Opened at or after (RFC 3339)"
//	@Param			to_date		query		string	false	"Opened at or before (RFC 3339)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]cashdeskapp.SessionResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions [get]
func (h *CashSessionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	var filter cashdeskapp.SessionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	sessions, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, sessions, total, filter.Page, filter.PageSize)
}

// Balance godoc
// @ID           getCashSessionBalance
//
//	@Summary		Get session balance
//	@Description	Recompute the expected cash balance of a session from its journal
//	@Tags			cash-sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	APIResponse[cashdeskapp.BalanceResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/{id}/balance [get]
func (h *CashSessionHandler) Balance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// AddMovement godoc
// @ID           addCashSessionMovement
//
//	@Summary		Append a manual cash movement
//	@Description	Append a deposit, withdrawal, or adjustment (reforço/sangria) to an open session's journal
//	@Tags			cash-sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		MovementRequest	true	"Movement request"
//	@Success		201		{object}	APIResponse[cashdeskapp.LedgerEntryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/{id}/movements [post]
func (h *CashSessionHandler) AddMovement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	entry, err := h.service.AddMovement(c.Request.Context(), tenantID, sessionID, cashdeskapp.MovementRequest{
		Kind:     req.Kind,
		Variant:  req.Variant,
		Amount:   toDecimal(req.Amount),
		Category: req.Category,
		Method:   req.Method,
		Notes:    req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// ListEntries godoc
// @ID           listCashSessionEntries
//
//	@Summary		List session journal entries
//	@Description	Get the ledger entries of a session, oldest first
//	@Tags			cash-sessions
//	@Produce		json
//	@Param			id			path		string	true	"Session ID"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]cashdeskapp.LedgerEntryResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/{id}/entries [get]
func (h *CashSessionHandler) ListEntries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	var listReq EntryListFilter
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if listReq.Page <= 0 {
		listReq.Page = 1
	}
	if listReq.PageSize <= 0 {
		listReq.PageSize = 20
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  "occurred_at",
		OrderDir: "asc",
	}

	entries, total, err := h.service.ListEntries(c.Request.Context(), tenantID, sessionID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, listReq.Page, listReq.PageSize)
}

// AttachReceipts godoc
// @ID           attachPendingReceipts
//
//	@Summary		Attach pending cash receipts
//	@Description	Bind cash receipts taken while no till was open to the current open session. Idempotent.
//	@Tags			cash-sessions
//	@Produce		json
//	@Success		200	{object}	APIResponse[AttachReceiptsResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/attach-receipts [post]
func (h *CashSessionHandler) AttachReceipts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	attached, err := h.service.AttachPendingCashReceipts(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AttachReceiptsResponse{Attached: attached})
}

// Close godoc
// @ID           closeCashSession
//
//	@Summary		Close a cash session
//	@Description	Close the session, reconcile counted against expected cash, and return the closing report. Retrying with the same X-Idempotency-Token returns the original report.
//	@Tags			cash-sessions
//	@Accept			json
//	@Produce		json
//	@Param			id					path		string				true	"Session ID"
//	@Param			X-Idempotency-Token	header		string				false	"Client-generated token for safe retries"
//	@Param			request				body		CloseSessionRequest	true	"Closing request"
//	@Success		200					{object}	APIResponse[cashdesk.ClosingReport]
//	@Failure		400					{object}	ErrorResponse
//	@Failure		401					{object}	ErrorResponse
//	@Failure		404					{object}	ErrorResponse
//	@Failure		422					{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cash-sessions/{id}/close [post]
func (h *CashSessionHandler) Close(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	userID, err := getUserID(c)
	if err != nil || userID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid user")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	var req CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	report, err := h.service.Close(c.Request.Context(), tenantID, sessionID, cashdeskapp.CloseSessionRequest{
		CountedAmount:    toDecimal(req.CountedAmount),
		IdempotencyToken: c.GetHeader(IdempotencyTokenHeader),
		ClosedBy:         userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RegisterRoutes registers all cash session routes
func (h *CashSessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/cash-sessions")
	{
		sessions.POST("", h.Open)
		sessions.GET("", h.List)
		sessions.GET("/open", h.GetOpen)
		sessions.POST("/attach-receipts", h.AttachReceipts)
		sessions.GET("/:id", h.Get)
		sessions.GET("/:id/balance", h.Balance)
		sessions.GET("/:id/entries", h.ListEntries)
		sessions.POST("/:id/movements", h.AddMovement)
		sessions.POST("/:id/close", h.Close)
	}
}
