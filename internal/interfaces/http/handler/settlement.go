package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	receivableapp "github.com/lostcode-dev/cashdesk/internal/application/receivable"
)

// SettlementHandler handles receipt and batch settlement API endpoints
type SettlementHandler struct {
	BaseHandler
	service *receivableapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(service *receivableapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// ===================== Request DTOs =====================

// AddReceiptRequest represents a request to apply one payment to one receivable
//
//	@Description	Add receipt request
type AddReceiptRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0" example:"50.00"`
	Method string  `json:"method" binding:"required" example:"CASH"`
	Notes  string  `json:"notes,omitempty" example:"pagamento parcial"`
}

// SettleBatchRequest represents a request to settle one entered amount across
// several receivables of the same customer
//
//	@Description	Batch settlement request
type SettleBatchRequest struct {
	CustomerID    string   `json:"customer_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount        float64  `json:"amount" binding:"required,gt=0" example:"300.00"`
	ReceivableIDs []string `json:"receivable_ids" binding:"required,min=1"`
	Method        string   `json:"method" binding:"required" example:"CASH"`
	Notes         string   `json:"notes,omitempty"`
}

// ===================== Handlers =====================

// AddReceipt godoc
// @ID           addReceipt
//
//	@Summary		Apply a payment to a receivable
//	@Description	Apply a single payment to a receivable. A payment above the outstanding amount is rejected with EXCEEDS_OUTSTANDING.
//	@Tags			settlements
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Receivable ID"
//	@Param			request	body		AddReceiptRequest	true	"Receipt request"
//	@Success		201		{object}	APIResponse[receivableapp.ReceiptResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/receivables/{id}/receipts [post]
func (h *SettlementHandler) AddReceipt(c *gin.Context) {
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

	var req AddReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	receipt, err := h.service.AddReceipt(c.Request.Context(), tenantID, receivableID, receivableapp.AddReceiptRequest{
		Amount: toDecimal(req.Amount),
		Method: req.Method,
		Notes:  req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, receipt)
}

// SettleBatch godoc
// @ID           settleBatch
//
//	@Summary		Settle a batch of receivables
//	@Description	Allocate one entered amount across the customer's receivables in the given order. A selection whose combined outstanding exceeds the entered amount is rejected and nothing commits; any unallocated remainder is reported back as leftover.
//	@Tags			settlements
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SettleBatchRequest	true	"Batch settlement request"
//	@Success		200		{object}	APIResponse[receivableapp.SettleBatchResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/settlements/batch [post]
func (h *SettlementHandler) SettleBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	var req SettleBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID")
		return
	}

	receivableIDs := make([]uuid.UUID, len(req.ReceivableIDs))
	for i, idStr := range req.ReceivableIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid receivable ID: "+idStr)
			return
		}
		receivableIDs[i] = id
	}

	result, err := h.service.SettleBatch(c.Request.Context(), tenantID, receivableapp.SettleBatchRequest{
		CustomerID:    customerID,
		Amount:        toDecimal(req.Amount),
		ReceivableIDs: receivableIDs,
		Method:        req.Method,
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers all settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/receivables/:id/receipts", h.AddReceipt)
	rg.POST("/settlements/batch", h.SettleBatch)
}
