package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cashdeskapp "github.com/lostcode-dev/cashdesk/internal/application/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/persistence"
)

func newSessionService(tdb *TestDB) *cashdeskapp.SessionService {
	sessionRepo := persistence.NewGormCashSessionRepository(tdb.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(tdb.DB)
	settlementRepo := persistence.NewGormSettlementRepository(tdb.DB)
	return cashdeskapp.NewSessionService(sessionRepo, ledgerRepo, settlementRepo)
}

func TestCashSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	service := newSessionService(tdb)
	ctx := context.Background()

	tenantID := uuid.New()
	operatorID := uuid.New()

	// Open a session with an opening float
	session, err := service.Open(ctx, tenantID, cashdeskapp.OpenSessionRequest{
		OpeningAmount: decimal.NewFromFloat(200.00),
		OpenedBy:      operatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, "OPEN", session.Status)
	assert.True(t, session.OpeningAmount.Equal(decimal.NewFromFloat(200.00)))

	// The open session is discoverable
	open, err := service.GetOpen(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, open.ID)

	// Record a deposit and a sangria withdrawal
	_, err = service.AddMovement(ctx, tenantID, session.ID, cashdeskapp.MovementRequest{
		Kind:   "DEPOSIT",
		Amount: decimal.NewFromFloat(150.00),
		Method: "CASH",
		Notes:  "venda balcão",
	})
	require.NoError(t, err)

	_, err = service.AddMovement(ctx, tenantID, session.ID, cashdeskapp.MovementRequest{
		Kind:    "ADJUSTMENT",
		Variant: "SANGRIA",
		Amount:  decimal.NewFromFloat(50.00),
		Notes:   "envio ao cofre",
	})
	require.NoError(t, err)

	// Expected = 200 opening + 150 deposit - 50 sangria
	balance, err := service.Balance(ctx, tenantID, session.ID)
	require.NoError(t, err)
	assert.True(t, balance.ExpectedAmount.Equal(decimal.NewFromFloat(300.00)),
		"expected 300.00, got %s", balance.ExpectedAmount)
	assert.Equal(t, int64(2), balance.EntryCount)

	// Close counting five reais short
	report, err := service.Close(ctx, tenantID, session.ID, cashdeskapp.CloseSessionRequest{
		CountedAmount: decimal.NewFromFloat(295.00),
		ClosedBy:      operatorID,
	})
	require.NoError(t, err)
	assert.True(t, report.ExpectedAmount.Equal(decimal.NewFromFloat(300.00)))
	assert.True(t, report.Difference.Equal(decimal.NewFromFloat(-5.00)))
	assert.Equal(t, cashdesk.DifferenceClassShortage, report.Classification)

	// The journal survives the close untouched
	entries, total, err := service.ListEntries(ctx, tenantID, session.ID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, entries, 2)

	// A second close of the same till is rejected
	_, err = service.Close(ctx, tenantID, session.ID, cashdeskapp.CloseSessionRequest{
		CountedAmount: decimal.NewFromFloat(295.00),
		ClosedBy:      operatorID,
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SESSION_NOT_OPEN", domainErr.Code)
}

func TestCashSessionSingleOpenInvariant(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	service := newSessionService(tdb)
	ctx := context.Background()

	tenantID := uuid.New()
	operatorID := uuid.New()

	_, err := service.Open(ctx, tenantID, cashdeskapp.OpenSessionRequest{
		OpeningAmount: decimal.NewFromFloat(100.00),
		OpenedBy:      operatorID,
	})
	require.NoError(t, err)

	// Second open for the same tenant hits the partial unique index
	_, err = service.Open(ctx, tenantID, cashdeskapp.OpenSessionRequest{
		OpeningAmount: decimal.NewFromFloat(50.00),
		OpenedBy:      operatorID,
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SESSION_ALREADY_OPEN", domainErr.Code)

	// A different tenant is unaffected
	_, err = service.Open(ctx, uuid.New(), cashdeskapp.OpenSessionRequest{
		OpeningAmount: decimal.NewFromFloat(50.00),
		OpenedBy:      uuid.New(),
	})
	require.NoError(t, err)
}

func TestCashSessionConcurrentOpens(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	service := newSessionService(tdb)
	ctx := context.Background()

	tenantID := uuid.New()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = service.Open(ctx, tenantID, cashdeskapp.OpenSessionRequest{
				OpeningAmount: decimal.NewFromFloat(100.00),
				OpenedBy:      uuid.New(),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SESSION_ALREADY_OPEN", domainErr.Code)
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent open must win")
}

func TestCashSessionMovementOnClosedSession(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	service := newSessionService(tdb)
	ctx := context.Background()

	tenantID := uuid.New()
	operatorID := uuid.New()

	session, err := service.Open(ctx, tenantID, cashdeskapp.OpenSessionRequest{
		OpeningAmount: decimal.NewFromFloat(100.00),
		OpenedBy:      operatorID,
	})
	require.NoError(t, err)

	_, err = service.Close(ctx, tenantID, session.ID, cashdeskapp.CloseSessionRequest{
		CountedAmount: decimal.NewFromFloat(100.00),
		ClosedBy:      operatorID,
	})
	require.NoError(t, err)

	_, err = service.AddMovement(ctx, tenantID, session.ID, cashdeskapp.MovementRequest{
		Kind:   "DEPOSIT",
		Amount: decimal.NewFromFloat(10.00),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SESSION_NOT_OPEN", domainErr.Code)
}
