package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

func TestGormLedgerRepository_Append(t *testing.T) {
	t.Run("inserts a new entry", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(gormDB)

		entry, err := cashdesk.NewLedgerEntry(
			uuid.New(), uuid.New(),
			cashdesk.EntryKindAdjustment, cashdesk.AdjustmentVariantSangria,
			valueobject.NewMoneyBRLFromFloat(80.00),
			"", cashdesk.PaymentMethodCash,
			cashdesk.ReferenceKindManual, nil, "sangria para o cofre",
		)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "ledger_entries"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Append(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerRepository_SumForSession(t *testing.T) {
	t.Run("returns the signed total", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(gormDB)

		tenantID := uuid.New()
		sessionID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "ledger_entries" WHERE tenant_id = \$1 AND cash_session_id = \$2`).
			WithArgs(tenantID, sessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("-35.50"))

		sum, err := repo.SumForSession(context.Background(), tenantID, sessionID)

		assert.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromFloat(-35.50)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty journal sums to zero", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(gormDB)

		tenantID := uuid.New()
		sessionID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "ledger_entries"`).
			WithArgs(tenantID, sessionID).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("0"))

		sum, err := repo.SumForSession(context.Background(), tenantID, sessionID)

		assert.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestGormLedgerRepository_SumByMethodForSession(t *testing.T) {
	t.Run("groups totals by method", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(gormDB)

		tenantID := uuid.New()
		sessionID := uuid.New()

		rows := sqlmock.NewRows([]string{"method", "total"}).
			AddRow("CASH", "120.00").
			AddRow("PIX", "45.50")

		mock.ExpectQuery(`SELECT method, COALESCE\(SUM\(amount\), 0\) AS total FROM "ledger_entries" WHERE tenant_id = \$1 AND cash_session_id = \$2 GROUP BY .*method.*`).
			WithArgs(tenantID, sessionID).
			WillReturnRows(rows)

		totals, err := repo.SumByMethodForSession(context.Background(), tenantID, sessionID)

		assert.NoError(t, err)
		require.Len(t, totals, 2)
		assert.True(t, totals[cashdesk.PaymentMethodCash].Equal(decimal.NewFromFloat(120.00)))
		assert.True(t, totals[cashdesk.PaymentMethodPix].Equal(decimal.NewFromFloat(45.50)))
	})
}
