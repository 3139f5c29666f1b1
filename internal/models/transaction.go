package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction marks which side of the ledger a record sits on.
type Direction string

const (
	DirectionCredit Direction = "Credit"
	DirectionDebit  Direction = "Debit"
)

// TransactionRecord is one immutable entry in an account's audit trail.
// BalanceAfter is the account balance immediately after the record was
// applied; replaying records in creation order from 0.00 reproduces the
// current balance.
type TransactionRecord struct {
	ID           int64           `json:"id" db:"id"`
	Reference    uuid.UUID       `json:"reference" db:"reference"`
	AccountNo    int64           `json:"account_no" db:"account_no"`
	Direction    Direction       `json:"direction" db:"direction"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
