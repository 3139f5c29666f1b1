package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Domain errors. Every failure leaving the account or ledger services is
// one of these kinds; raw storage errors never escape. All of them are
// recoverable from the caller's point of view.
var (
	// ErrInvalidAmount is returned for a non-positive deposit or
	// withdrawal amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountNotFound is returned when an operation targets an
	// unknown account number.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a withdrawal would drive the
	// balance negative. The account is left untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateIdentity is returned when account creation collides on
	// mobile number or email.
	ErrDuplicateIdentity = errors.New("mobile number or email already registered")

	// ErrStorageFailure covers any underlying persistence fault,
	// including timeouts and unclassified constraint violations.
	ErrStorageFailure = errors.New("storage failure")
)

const pgUniqueViolation = "23505"

// translateStorageError maps a database error onto the domain taxonomy.
// sql.ErrNoRows becomes ErrAccountNotFound, unique violations become
// ErrDuplicateIdentity, context expiry and everything else becomes
// ErrStorageFailure.
func translateStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return ErrDuplicateIdentity
	}
	// Context expiry lands here too: a timed-out statement is a storage
	// fault to the caller, never a hang.
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
