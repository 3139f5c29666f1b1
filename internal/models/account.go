package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the customer account category.
type AccountType string

const (
	AccountTypeSavings AccountType = "Savings"
	AccountTypeCurrent AccountType = "Current"
)

// Valid reports whether t is one of the two supported categories.
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

// Account is a customer row. Balance is mutated only by the ledger
// service inside its transaction boundary.
type Account struct {
	AccountNo   int64           `json:"account_no" db:"account_no"`
	Name        string          `json:"name" db:"name"`
	MobileNo    string          `json:"mobile_no" db:"mobile_no"`
	Email       string          `json:"email" db:"email"`
	PinHash     string          `json:"-" db:"pin_hash"`
	AccountType AccountType     `json:"account_type" db:"account_type"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
