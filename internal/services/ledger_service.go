package services

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vasu-4795-cmd/Bank2/internal/audit"
	"github.com/Vasu-4795-cmd/Bank2/internal/models"
)

// DefaultHistoryLimit is used when a caller asks for history without a
// limit; MaxHistoryLimit caps what a single read may return.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// LedgerService is the only component allowed to change a balance. Every
// balance change is paired with exactly one transaction record inside one
// database transaction: the row lock taken by ReadBalanceForUpdate is held
// from the balance read until the record is durably committed, so the
// read-check-write-append sequence is indivisible per account. Operations
// on different accounts do not block each other.
type LedgerService struct {
	db       *sql.DB
	accounts *AccountService
	audit    *audit.Logger
}

func NewLedgerService(db *sql.DB, accounts *AccountService) *LedgerService {
	return &LedgerService{
		db:       db,
		accounts: accounts,
		audit:    audit.NewLogger(),
	}
}

// Deposit credits amount to the account and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, accountNo int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, accountNo, amount, models.DirectionCredit)
}

// Withdraw debits amount from the account and returns the new balance.
// A withdrawal that would drive the balance negative fails with
// ErrInsufficientFunds and has zero effect; the sufficiency check runs
// under the same row lock as the balance write, so two concurrent
// withdrawals cannot both pass it against a stale balance.
func (s *LedgerService) Withdraw(ctx context.Context, accountNo int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.apply(ctx, accountNo, amount, models.DirectionDebit)
}

func (s *LedgerService) apply(ctx context.Context, accountNo int64, amount decimal.Decimal, direction models.Direction) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}

	reference := uuid.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[LEDGER] Failed to begin transaction: %v", err)
		return decimal.Zero, translateStorageError(err)
	}
	defer tx.Rollback()

	current, err := s.accounts.ReadBalanceForUpdate(tx, accountNo)
	if err != nil {
		s.audit.LogError(reference.String(), accountNo, err)
		return decimal.Zero, err
	}

	var newBalance decimal.Decimal
	switch direction {
	case models.DirectionCredit:
		newBalance = current.Add(amount)
	case models.DirectionDebit:
		if current.LessThan(amount) {
			s.audit.LogError(reference.String(), accountNo, ErrInsufficientFunds)
			return decimal.Zero, ErrInsufficientFunds
		}
		newBalance = current.Sub(amount)
	}

	if err := s.accounts.WriteBalance(tx, accountNo, newBalance); err != nil {
		s.audit.LogError(reference.String(), accountNo, err)
		return decimal.Zero, err
	}

	if err := s.appendRecord(tx, reference, accountNo, direction, amount, newBalance); err != nil {
		s.audit.LogError(reference.String(), accountNo, err)
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[LEDGER] Commit failed for account %d: %v", accountNo, err)
		s.audit.LogError(reference.String(), accountNo, err)
		return decimal.Zero, translateStorageError(err)
	}

	s.audit.LogOperation(reference.String(), accountNo, string(direction), amount, newBalance)
	return newBalance, nil
}

func (s *LedgerService) appendRecord(tx *sql.Tx, reference uuid.UUID, accountNo int64, direction models.Direction, amount, balanceAfter decimal.Decimal) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (reference, account_no, direction, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		reference, accountNo, string(direction), amount, balanceAfter, time.Now())
	return translateStorageError(err)
}

// GetHistory returns the account's transaction records newest first,
// truncated to limit (default 10, capped at 100). It is a snapshot read:
// it never waits on the ledger's row lock and never observes a record
// whose operation has not committed.
func (s *LedgerService) GetHistory(ctx context.Context, accountNo int64, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, account_no, direction, amount, balance_after, created_at
		FROM transactions
		WHERE account_no = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountNo, limit)
	if err != nil {
		return nil, translateStorageError(err)
	}
	defer rows.Close()

	records := []models.TransactionRecord{}
	for rows.Next() {
		var rec models.TransactionRecord
		var direction string
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.AccountNo, &direction,
			&rec.Amount, &rec.BalanceAfter, &rec.CreatedAt); err != nil {
			return nil, translateStorageError(err)
		}
		rec.Direction = models.Direction(direction)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStorageError(err)
	}

	return records, nil
}
