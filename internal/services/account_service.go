package services

import (
	"context"
	cryptorand "crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/Vasu-4795-cmd/Bank2/internal/models"
)

// AccountService owns the customer table: identity, credential
// verification and balance storage. Transaction semantics live in
// LedgerService, which is the only caller of ReadBalanceForUpdate and
// WriteBalance.
type AccountService struct {
	db *sql.DB
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{db: db}
}

// CreateAccountRequest carries the account opening parameters.
type CreateAccountRequest struct {
	Name        string             `json:"name" validate:"required,min=2"`
	MobileNo    string             `json:"mobile_no" validate:"required,min=7,max=15"`
	Email       string             `json:"email" validate:"required,email"`
	PIN         string             `json:"pin" validate:"required,min=4"`
	AccountType models.AccountType `json:"account_type" validate:"required,oneof=Savings Current"`
}

// CreateAccount opens a new account with a zero balance and returns the
// generated account number. Mobile number and email collisions surface as
// ErrDuplicateIdentity with no partial row left behind; the uniqueness
// check is the database constraint itself, so concurrent creations with
// the same mobile yield exactly one success.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (int64, error) {
	if !req.AccountType.Valid() {
		return 0, fmt.Errorf("%w: unknown account type %q", ErrStorageFailure, req.AccountType)
	}

	pinHash, err := hashPIN(req.PIN)
	if err != nil {
		log.Printf("[ACCOUNT] PIN hashing failed: %v", err)
		return 0, translateStorageError(err)
	}

	var accountNo int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, mobile_no, email, pin_hash, account_type, balance)
		VALUES ($1, $2, $3, $4, $5, 0.00)
		RETURNING account_no`,
		req.Name, req.MobileNo, strings.ToLower(req.Email), pinHash, string(req.AccountType),
	).Scan(&accountNo)
	if err != nil {
		log.Printf("[ACCOUNT] Account creation failed for mobile %s: %v", req.MobileNo, err)
		return 0, translateStorageError(err)
	}

	log.Printf("[ACCOUNT] Account created - no: %d, mobile: %s", accountNo, req.MobileNo)
	return accountNo, nil
}

// Authenticate verifies a PIN against the stored digest. An unknown
// account number returns false, not an error: failure and non-existence
// are indistinguishable to the caller so account numbers cannot be
// enumerated through error messages.
func (s *AccountService) Authenticate(ctx context.Context, accountNo int64, pin string) (bool, error) {
	var pinHash string
	err := s.db.QueryRowContext(ctx,
		`SELECT pin_hash FROM customers WHERE account_no = $1`, accountNo,
	).Scan(&pinHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, translateStorageError(err)
	}
	return verifyPIN(pin, pinHash), nil
}

// GetBalance returns the latest committed balance. It is a plain MVCC
// read and never waits on the ledger's row lock.
func (s *AccountService) GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM customers WHERE account_no = $1`, accountNo,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, translateStorageError(err)
	}
	return balance, nil
}

// GetAccount fetches the full customer row.
func (s *AccountService) GetAccount(ctx context.Context, accountNo int64) (*models.Account, error) {
	var acct models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT account_no, name, mobile_no, email, pin_hash, account_type, balance, created_at
		FROM customers WHERE account_no = $1`, accountNo,
	).Scan(&acct.AccountNo, &acct.Name, &acct.MobileNo, &acct.Email,
		&acct.PinHash, &acct.AccountType, &acct.Balance, &acct.CreatedAt)
	if err != nil {
		return nil, translateStorageError(err)
	}
	return &acct, nil
}

// ReadBalanceForUpdate reads the balance while taking the account's
// row-level lock. The lock is the per-account exclusive hold: it is held
// until the surrounding transaction commits or rolls back, and it does
// not block operations on other accounts.
func (s *AccountService) ReadBalanceForUpdate(tx *sql.Tx, accountNo int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(`
		SELECT balance FROM customers
		WHERE account_no = $1
		FOR UPDATE`, accountNo,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, translateStorageError(err)
	}
	return balance, nil
}

// WriteBalance commits a new balance. Must only be called inside the
// ledger's transaction while the lock from ReadBalanceForUpdate is held.
func (s *AccountService) WriteBalance(tx *sql.Tx, accountNo int64, newBalance decimal.Decimal) error {
	result, err := tx.Exec(`
		UPDATE customers SET balance = $1 WHERE account_no = $2`,
		newBalance, accountNo)
	if err != nil {
		return translateStorageError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return translateStorageError(err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func setArgon2Defaults() {
	viper.SetDefault("argon2.salt_length", 16)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
}

func hashPIN(pin string) (string, error) {
	setArgon2Defaults()

	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(pin), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

// verifyPIN recomputes the digest with the stored salt. The comparison is
// constant-time: PIN spaces are small enough that timing leaks matter.
func verifyPIN(pin, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	setArgon2Defaults()
	computed := argon2.IDKey([]byte(pin), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return subtle.ConstantTimeCompare(hash, computed) == 1
}
