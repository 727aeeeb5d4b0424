package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	receivableapp "github.com/lostcode-dev/cashdesk/internal/application/receivable"
)

// ReceivableHandler handles receivable API endpoints
type ReceivableHandler struct {
	BaseHandler
	service *receivableapp.ReceivableService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(service *receivableapp.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{service: service}
}

// ===================== Request DTOs =====================

// CreateReceivableRequest represents a request to register a customer debt
//
//	@Description	Create receivable request
type CreateReceivableRequest struct {
	CustomerID  string     `json:"customer_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Description string     `json:"description" binding:"required" example:"compra fiada - mercadorias"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Amount      float64    `json:"amount" binding:"required,gt=0" example:"150.00"`
}

// CancelReceivableRequest represents a request to cancel a receivable
//
//	@Description	Cancel receivable request
type CancelReceivableRequest struct {
	Reason string `json:"reason" binding:"required" example:"lançamento duplicado"`
}

// ReceivableFilter represents filter parameters for receivable lists
//
//	@Description	Receivable list filter
type ReceivableFilter struct {
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
	FromDate   string `form:"from_date" json:"from_date"`
	ToDate     string `form:"to_date" json:"to_date"`
	DueFrom    string `form:"due_from" json:"due_from"`
	DueTo      string `form:"due_to" json:"due_to"`
	Overdue    *bool  `form:"overdue"`
	Page       int    `form:"page,omitempty" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100" json:"page_size" example:"20"`
}

// ===================== Handlers =====================

// Create godoc
// @ID           createReceivable
//
//	@Summary		Register a receivable
//	@Description	Register a new customer debt in OPEN state
//	@Tags			receivables
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateReceivableRequest	true	"Receivable creation request"
//	@Success		201		{object}	APIResponse[receivableapp.ReceivableResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/receivables [post]
func (h *ReceivableHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	var req CreateReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	r, err := h.service.Create(c.Request.Context(), tenantID, receivableapp.CreateReceivableRequest{
		CustomerID:  customerID,
		Description: req.Description,
		DueDate:     req.DueDate,
		Amount:      toDecimal(req.Amount),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, r)
}

// Get godoc
// @ID           getReceivable
//
//	@Summary		Get receivable by ID
//	@Description	Get a receivable with its receipt history
//	@Tags			receivables
//	@Produce		json
//	@Param			id	path		string	true	"Receivable ID"
//	@Success		200	{object}	APIResponse[receivableapp.ReceivableResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/receivables/{id} [get]
func (h *ReceivableHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	receivableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid receivable ID")
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), tenantID, receivableID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, r)
}

// List godoc
// @ID           listReceivables
//
//	@Summary		List receivables
//	@Description	Get a paginated list of receivables
//	@Tags			receivables
//	@Produce		json
//	@Param			customer_id	query		string	false	"Filter by customer ID"
//	@Param			status		query		string	false	"Filter by status"	Enums(OPEN, PARTIAL, PAID, CANCELLED)
//	@Param			from_date	query		string	false	"Created from date (YYYY-MM-DD)"
//	@Param			to_date		query		string	false	"Created to date (YYYY-MM-DD)"
//	@Param			due_from	query		string	false	"Due from date (YYYY-MM-DD)"
//	@Param			due_to		query		string	false	"Due to date (YYYY-MM-DD)"
//	@Param			overdue		query		bool	false	"Only overdue receivables"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	APIResponse[[]receivableapp.ReceivableResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/receivables [get]
func (h *ReceivableHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	var filter ReceivableFilter
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

	serviceFilter := receivableapp.ReceivableListFilter{
		Status:   filter.Status,
		Overdue:  filter.Overdue,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}

	if filter.CustomerID != "" {
		customerID, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
			return
		}
		serviceFilter.CustomerID = &customerID
	}

	serviceFilter.FromDate = parseDateStart(filter.FromDate)
	serviceFilter.ToDate = parseDateEnd(filter.ToDate)
	serviceFilter.DueFrom = parseDateStart(filter.DueFrom)
	serviceFilter.DueTo = parseDateEnd(filter.DueTo)

	receivables, total, err := h.service.List(c.Request.Context(), tenantID, serviceFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, receivables, total, filter.Page, filter.PageSize)
}

// Cancel godoc
// @ID           cancelReceivable
//
//	@Summary		Cancel a receivable
//	@Description	Cancel a receivable with a mandatory reason. Receipts already applied stay on record.
//	@Tags			receivables
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Receivable ID"
//	@Param			request	body		CancelReceivableRequest	true	"Cancellation reason"
//	@Success		200		{object}	APIResponse[receivableapp.ReceivableResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/receivables/{id}/cancel [post]
func (h *ReceivableHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	receivableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid receivable ID")
		return
	}

	var req CancelReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	r, err := h.service.Cancel(c.Request.Context(), tenantID, receivableID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, r)
}

// GetSummary godoc
// @ID           getReceivablesSummary
//
//	@Summary		Get receivables summary
//	@Description	Get the tenant's aggregated receivable position
//	@Tags			receivables
//	@Produce		json
//	@Success		200	{object}	APIResponse[receivableapp.ReceivableSummary]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/receivables/summary [get]
func (h *ReceivableHandler) GetSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetCustomerOutstanding godoc
// @ID           getCustomerOutstanding
//
//	@Summary		Get customer outstanding receivables
//	@Description	Get a customer's open and partial receivables, oldest due date first
//	@Tags			receivables
//	@Produce		json
//	@Param			id	path		string	true	"Customer ID"
//	@Success		200	{object}	APIResponse[receivableapp.CustomerOutstandingResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/customers/{id}/receivables/outstanding [get]
func (h *ReceivableHandler) GetCustomerOutstanding(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	outstanding, err := h.service.GetCustomerOutstanding(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, outstanding)
}

// ===================== Helper Functions =====================

func parseDateStart(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func parseDateEnd(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	t = t.Add(24*time.Hour - time.Second)
	return &t
}

// RegisterRoutes registers all receivable routes
func (h *ReceivableHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receivables := rg.Group("/receivables")
	{
		receivables.POST("", h.Create)
		receivables.GET("", h.List)
		receivables.GET("/summary", h.GetSummary)
		receivables.GET("/:id", h.Get)
		receivables.POST("/:id/cancel", h.Cancel)
	}

	rg.GET("/customers/:id/receivables/outstanding", h.GetCustomerOutstanding)
}
