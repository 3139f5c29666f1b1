package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Vasu-4795-cmd/Bank2/internal/models"
)

func newLedgerService(t *testing.T) (*LedgerService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	accounts := NewAccountService(db)
	service := NewLedgerService(db, accounts)
	return service, mock, func() { db.Close() }
}

func TestLedgerService_Deposit(t *testing.T) {
	service, mock, closeDB := newLedgerService(t)
	defer closeDB()

	accountNo := int64(1)

	t.Run("successful deposit", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("0.00"))

		mock.ExpectExec("UPDATE customers SET balance = \\$1 WHERE account_no = \\$2").
			WithArgs(sqlmock.AnyArg(), accountNo).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), accountNo, "Credit", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		newBalance, err := service.Deposit(context.Background(), accountNo, decimal.RequireFromString("1000.00"))
		assert.NoError(t, err)
		assert.True(t, newBalance.Equal(decimal.RequireFromString("1000.00")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero amount rejected before any storage access", func(t *testing.T) {
		_, err := service.Deposit(context.Background(), accountNo, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := service.Deposit(context.Background(), accountNo, decimal.RequireFromString("-5.00"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account aborts", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(int64(999)).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectRollback()

		_, err := service.Deposit(context.Background(), int64(999), decimal.RequireFromString("10.00"))
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record append fault rolls back the balance write", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("500.00"))

		mock.ExpectExec("UPDATE customers SET balance = \\$1 WHERE account_no = \\$2").
			WithArgs(sqlmock.AnyArg(), accountNo).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec("INSERT INTO transactions").
			WillReturnError(errors.New("disk full"))

		mock.ExpectRollback()

		_, err := service.Deposit(context.Background(), accountNo, decimal.RequireFromString("100.00"))
		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit fault surfaces as storage failure", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("500.00"))

		mock.ExpectExec("UPDATE customers SET balance = \\$1 WHERE account_no = \\$2").
			WithArgs(sqlmock.AnyArg(), accountNo).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), accountNo, "Credit", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := service.Deposit(context.Background(), accountNo, decimal.RequireFromString("100.00"))
		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_Withdraw(t *testing.T) {
	service, mock, closeDB := newLedgerService(t)
	defer closeDB()

	accountNo := int64(1)

	t.Run("successful withdrawal", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("1000.00"))

		mock.ExpectExec("UPDATE customers SET balance = \\$1 WHERE account_no = \\$2").
			WithArgs(sqlmock.AnyArg(), accountNo).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), accountNo, "Debit", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		newBalance, err := service.Withdraw(context.Background(), accountNo, decimal.RequireFromString("200.00"))
		assert.NoError(t, err)
		assert.True(t, newBalance.Equal(decimal.RequireFromString("800.00")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds leaves balance untouched", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("800.00"))

		mock.ExpectRollback()

		_, err := service.Withdraw(context.Background(), accountNo, decimal.RequireFromString("10000.00"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("withdrawal of exact balance succeeds", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("50.25"))

		mock.ExpectExec("UPDATE customers SET balance = \\$1 WHERE account_no = \\$2").
			WithArgs(sqlmock.AnyArg(), accountNo).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), accountNo, "Debit", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		newBalance, err := service.Withdraw(context.Background(), accountNo, decimal.RequireFromString("50.25"))
		assert.NoError(t, err)
		assert.True(t, newBalance.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Repeated small deposits must accumulate exactly: 0.1 added ten times is
// exactly 1.00, which float64 arithmetic would miss.
func TestLedgerService_DecimalAccumulation(t *testing.T) {
	service, mock, closeDB := newLedgerService(t)
	defer closeDB()

	accountNo := int64(7)
	running := decimal.Zero
	tenth := decimal.RequireFromString("0.10")

	for i := 0; i < 10; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM customers WHERE account_no = \\$1 FOR UPDATE").
			WithArgs(accountNo).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(running.StringFixed(2)))
		mock.ExpectExec("UPDATE customers SET balance = \\$1 WHERE account_no = \\$2").
			WithArgs(sqlmock.AnyArg(), accountNo).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), accountNo, "Credit", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		var err error
		running, err = service.Deposit(context.Background(), accountNo, tenth)
		assert.NoError(t, err)
	}

	assert.True(t, running.Equal(decimal.RequireFromString("1.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_GetHistory(t *testing.T) {
	service, mock, closeDB := newLedgerService(t)
	defer closeDB()

	accountNo := int64(1)
	now := time.Now()
	historyColumns := []string{"id", "reference", "account_no", "direction", "amount", "balance_after", "created_at"}

	historyRows := func() *sqlmock.Rows {
		return sqlmock.NewRows(historyColumns).
			AddRow(2, uuid.New().String(), accountNo, "Debit", "200.00", "800.00", now).
			AddRow(1, uuid.New().String(), accountNo, "Credit", "1000.00", "1000.00", now.Add(-time.Minute))
	}

	t.Run("newest first with default limit", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, reference, account_no, direction, amount, balance_after, created_at FROM transactions").
			WithArgs(accountNo, DefaultHistoryLimit).
			WillReturnRows(historyRows())

		records, err := service.GetHistory(context.Background(), accountNo, 0)
		assert.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, models.DirectionDebit, records[0].Direction)
		assert.True(t, records[0].BalanceAfter.Equal(decimal.RequireFromString("800.00")))
		assert.Equal(t, models.DirectionCredit, records[1].Direction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeated reads return identical results", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, reference, account_no, direction, amount, balance_after, created_at FROM transactions").
			WithArgs(accountNo, 5).
			WillReturnRows(historyRows())
		mock.ExpectQuery("SELECT id, reference, account_no, direction, amount, balance_after, created_at FROM transactions").
			WithArgs(accountNo, 5).
			WillReturnRows(historyRows())

		first, err := service.GetHistory(context.Background(), accountNo, 5)
		assert.NoError(t, err)
		second, err := service.GetHistory(context.Background(), accountNo, 5)
		assert.NoError(t, err)

		assert.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
			assert.Equal(t, first[i].Direction, second[i].Direction)
			assert.True(t, first[i].Amount.Equal(second[i].Amount))
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("limit is capped", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, reference, account_no, direction, amount, balance_after, created_at FROM transactions").
			WithArgs(accountNo, MaxHistoryLimit).
			WillReturnRows(sqlmock.NewRows(historyColumns))

		records, err := service.GetHistory(context.Background(), accountNo, 5000)
		assert.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account yields empty history", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, reference, account_no, direction, amount, balance_after, created_at FROM transactions").
			WithArgs(int64(999), DefaultHistoryLimit).
			WillReturnRows(sqlmock.NewRows(historyColumns))

		records, err := service.GetHistory(context.Background(), int64(999), 0)
		assert.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
