package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cashdeskapp "github.com/lostcode-dev/cashdesk/internal/application/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// MockCashSessionRepository implements cashdesk.CashSessionRepository for testing
type MockCashSessionRepository struct {
	mock.Mock
}

func (m *MockCashSessionRepository) Create(ctx context.Context, session *cashdesk.CashSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCashSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*cashdesk.CashSession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cashdesk.CashSession), args.Error(1)
}

func (m *MockCashSessionRepository) FindOpenForTenant(ctx context.Context, tenantID uuid.UUID) (*cashdesk.CashSession, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cashdesk.CashSession), args.Error(1)
}

func (m *MockCashSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter cashdesk.CashSessionFilter) ([]cashdesk.CashSession, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]cashdesk.CashSession), args.Error(1)
}

func (m *MockCashSessionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter cashdesk.CashSessionFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCashSessionRepository) SaveClosed(ctx context.Context, session *cashdesk.CashSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// MockLedgerRepository implements cashdesk.LedgerRepository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *cashdesk.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListForSession(ctx context.Context, tenantID, sessionID uuid.UUID, filter shared.Filter) ([]cashdesk.LedgerEntry, int64, error) {
	args := m.Called(ctx, tenantID, sessionID, filter)
	return args.Get(0).([]cashdesk.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) SumForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) SumByMethodForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (map[cashdesk.PaymentMethod]decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Get(0).(map[cashdesk.PaymentMethod]decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) CountForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettlementRepository implements receivable.SettlementRepository for testing
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) AddReceipt(ctx context.Context, r *receivable.Receivable, receipt *receivable.Receipt, entry *cashdesk.LedgerEntry) error {
	args := m.Called(ctx, r, receipt, entry)
	return args.Error(0)
}

func (m *MockSettlementRepository) CommitBatch(ctx context.Context, batch receivable.SettlementBatch) (*receivable.SettlementResult, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.SettlementResult), args.Error(1)
}

func (m *MockSettlementRepository) AttachPendingToSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Int(0), args.Error(1)
}

// Test setup helpers

var testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func setupCashdeskRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		setJWTContext(c, testTenantID, uuid.New())
		c.Next()
	})
	return router
}

func setupCashSessionHandler(sessionRepo *MockCashSessionRepository, ledgerRepo *MockLedgerRepository, settlementRepo *MockSettlementRepository) *CashSessionHandler {
	service := cashdeskapp.NewSessionService(sessionRepo, ledgerRepo, settlementRepo)
	return NewCashSessionHandler(service)
}

func newOpenTestSession(t *testing.T, tenantID uuid.UUID, opening float64) *cashdesk.CashSession {
	session, err := cashdesk.NewCashSession(tenantID, uuid.New(), valueobject.NewMoneyBRLFromFloat(opening))
	require.NoError(t, err)
	return session
}

func newClosedTestSession(t *testing.T, tenantID uuid.UUID, opening, counted float64) *cashdesk.CashSession {
	session := newOpenTestSession(t, tenantID, opening)
	_, err := session.Close(
		valueobject.NewMoneyBRLFromFloat(counted),
		valueobject.NewMoneyBRLFromFloat(counted),
		uuid.New(),
	)
	require.NoError(t, err)
	return session
}

// Tests

func TestCashSessionHandler_Open_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*cashdesk.CashSession")).Return(nil)
	settlementRepo.On("AttachPendingToSession", mock.Anything, testTenantID, mock.AnythingOfType("uuid.UUID")).Return(0, nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions", handler.Open)

	body, _ := json.Marshal(OpenSessionRequest{OpeningAmount: 200.00})
	req := httptest.NewRequest(http.MethodPost, "/cash-sessions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	sessionRepo.AssertExpectations(t)
	settlementRepo.AssertExpectations(t)
}

func TestCashSessionHandler_Open_AlreadyOpen(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*cashdesk.CashSession")).
		Return(shared.NewDomainError("SESSION_ALREADY_OPEN", "An open cash session already exists for this tenant"))

	router := setupCashdeskRouter()
	router.POST("/cash-sessions", handler.Open)

	body, _ := json.Marshal(OpenSessionRequest{OpeningAmount: 100.00})
	req := httptest.NewRequest(http.MethodPost, "/cash-sessions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	sessionRepo.AssertExpectations(t)
}

func TestCashSessionHandler_Open_InvalidJSON(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions", handler.Open)

	req := httptest.NewRequest(http.MethodPost, "/cash-sessions", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCashSessionHandler_GetOpen_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newOpenTestSession(t, testTenantID, 150.00)
	sessionRepo.On("FindOpenForTenant", mock.Anything, testTenantID).Return(session, nil)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions/open", handler.GetOpen)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions/open", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	sessionRepo.AssertExpectations(t)
}

func TestCashSessionHandler_GetOpen_NoneOpen(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	sessionRepo.On("FindOpenForTenant", mock.Anything, testTenantID).Return(nil, nil)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions/open", handler.GetOpen)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions/open", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCashSessionHandler_Get_InvalidID(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions/:id", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCashSessionHandler_Get_NotFound(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	sessionID := uuid.New()
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, sessionID).Return(nil, nil)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions/:id", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions/"+sessionID.String(), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCashSessionHandler_List_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	sessions := []cashdesk.CashSession{*newOpenTestSession(t, testTenantID, 100.00)}
	sessionRepo.On("FindAllForTenant", mock.Anything, testTenantID, mock.AnythingOfType("cashdesk.CashSessionFilter")).Return(sessions, nil)
	sessionRepo.On("CountForTenant", mock.Anything, testTenantID, mock.AnythingOfType("cashdesk.CashSessionFilter")).Return(int64(1), nil)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions?page=1&page_size=20", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Meta    struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.Meta.Total)
	sessionRepo.AssertExpectations(t)
}

func TestCashSessionHandler_Balance_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newOpenTestSession(t, testTenantID, 200.00)
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, session.ID).Return(session, nil)
	ledgerRepo.On("SumForSession", mock.Anything, testTenantID, session.ID).Return(decimal.NewFromFloat(345.50), nil)
	ledgerRepo.On("CountForSession", mock.Anything, testTenantID, session.ID).Return(int64(7), nil)
	ledgerRepo.On("SumByMethodForSession", mock.Anything, testTenantID, session.ID).Return(map[cashdesk.PaymentMethod]decimal.Decimal{
		cashdesk.PaymentMethodCash: decimal.NewFromFloat(345.50),
	}, nil)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions/:id/balance", handler.Balance)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions/"+session.ID.String()+"/balance", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ExpectedAmount decimal.Decimal `json:"expected_amount"`
			EntryCount     int64           `json:"entry_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.ExpectedAmount.Equal(decimal.NewFromFloat(545.50)))
	assert.Equal(t, int64(7), resp.Data.EntryCount)
	ledgerRepo.AssertExpectations(t)
}

func TestCashSessionHandler_AddMovement_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newOpenTestSession(t, testTenantID, 100.00)
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, session.ID).Return(session, nil)
	ledgerRepo.On("Append", mock.Anything, mock.AnythingOfType("*cashdesk.LedgerEntry")).Return(nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions/:id/movements", handler.AddMovement)

	body, _ := json.Marshal(MovementRequest{
		Kind:    "ADJUSTMENT",
		Variant: "SANGRIA",
		Amount:  80.00,
		Method:  "CASH",
		Notes:   "sangria para o cofre",
	})
	req := httptest.NewRequest(http.MethodPost, "/cash-sessions/"+session.ID.String()+"/movements", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	ledgerRepo.AssertExpectations(t)
}

func TestCashSessionHandler_AddMovement_ClosedSession(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newClosedTestSession(t, testTenantID, 100.00, 100.00)
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, session.ID).Return(session, nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions/:id/movements", handler.AddMovement)

	body, _ := json.Marshal(MovementRequest{Kind: "DEPOSIT", Amount: 50.00, Method: "CASH"})
	req := httptest.NewRequest(http.MethodPost, "/cash-sessions/"+session.ID.String()+"/movements", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCashSessionHandler_ListEntries_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newOpenTestSession(t, testTenantID, 100.00)
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, session.ID).Return(session, nil)
	ledgerRepo.On("ListForSession", mock.Anything, testTenantID, session.ID, mock.AnythingOfType("shared.Filter")).
		Return([]cashdesk.LedgerEntry{}, int64(0), nil)

	router := setupCashdeskRouter()
	router.GET("/cash-sessions/:id/entries", handler.ListEntries)

	req := httptest.NewRequest(http.MethodGet, "/cash-sessions/"+session.ID.String()+"/entries", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ledgerRepo.AssertExpectations(t)
}

func TestCashSessionHandler_AttachReceipts_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newOpenTestSession(t, testTenantID, 100.00)
	sessionRepo.On("FindOpenForTenant", mock.Anything, testTenantID).Return(session, nil)
	settlementRepo.On("AttachPendingToSession", mock.Anything, testTenantID, session.ID).Return(3, nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions/attach-receipts", handler.AttachReceipts)

	req := httptest.NewRequest(http.MethodPost, "/cash-sessions/attach-receipts", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data AttachReceiptsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Attached)
	settlementRepo.AssertExpectations(t)
}

func TestCashSessionHandler_AttachReceipts_NoOpenSession(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	sessionRepo.On("FindOpenForTenant", mock.Anything, testTenantID).Return(nil, nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions/attach-receipts", handler.AttachReceipts)

	req := httptest.NewRequest(http.MethodPost, "/cash-sessions/attach-receipts", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCashSessionHandler_Close_Success(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newOpenTestSession(t, testTenantID, 200.00)
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, session.ID).Return(session, nil)
	ledgerRepo.On("SumForSession", mock.Anything, testTenantID, session.ID).Return(decimal.NewFromFloat(1145.00), nil)
	sessionRepo.On("SaveClosed", mock.Anything, session).Return(nil)
	ledgerRepo.On("SumByMethodForSession", mock.Anything, testTenantID, session.ID).Return(map[cashdesk.PaymentMethod]decimal.Decimal{}, nil)
	ledgerRepo.On("CountForSession", mock.Anything, testTenantID, session.ID).Return(int64(12), nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions/:id/close", handler.Close)

	body, _ := json.Marshal(CloseSessionRequest{CountedAmount: 1340.00})
	req := httptest.NewRequest(http.MethodPost, "/cash-sessions/"+session.ID.String()+"/close", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyTokenHeader, "close-attempt-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// Counted 1340.00 against expected 1345.00: shortage of 5.00
	var resp struct {
		Data struct {
			ExpectedAmount decimal.Decimal `json:"expected_amount"`
			CountedAmount  decimal.Decimal `json:"counted_amount"`
			Difference     decimal.Decimal `json:"difference"`
			Classification string          `json:"classification"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.ExpectedAmount.Equal(decimal.NewFromFloat(1345.00)))
	assert.True(t, resp.Data.Difference.Equal(decimal.NewFromFloat(-5.00)))
	assert.Equal(t, "SHORTAGE", resp.Data.Classification)
	sessionRepo.AssertExpectations(t)
}

func TestCashSessionHandler_Close_AlreadyClosed(t *testing.T) {
	sessionRepo := new(MockCashSessionRepository)
	ledgerRepo := new(MockLedgerRepository)
	settlementRepo := new(MockSettlementRepository)
	handler := setupCashSessionHandler(sessionRepo, ledgerRepo, settlementRepo)

	session := newClosedTestSession(t, testTenantID, 200.00, 200.00)
	sessionRepo.On("FindByIDForTenant", mock.Anything, testTenantID, session.ID).Return(session, nil)

	router := setupCashdeskRouter()
	router.POST("/cash-sessions/:id/close", handler.Close)

	body, _ := json.Marshal(CloseSessionRequest{CountedAmount: 200.00})
	req := httptest.NewRequest(http.MethodPost, "/cash-sessions/"+session.ID.String()+"/close", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	sessionRepo.AssertNotCalled(t, "SaveClosed", mock.Anything, mock.Anything)
}
