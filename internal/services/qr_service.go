package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrPaymentRequestNotFound is returned when a code is unknown, expired
// or already consumed.
var ErrPaymentRequestNotFound = errors.New("invalid or expired payment request")

const paymentRequestTTL = 5 * time.Minute

// PaymentRequest is a short-lived ask for a deposit: the account to
// credit and the amount, shareable as a QR code. Resolving one yields the
// parameters for a normal Deposit call; it carries no ledger semantics of
// its own.
type PaymentRequest struct {
	AccountNo int64           `json:"account_no"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt int64           `json:"created_at"`
	Nonce     string          `json:"nonce"`
}

// QRService issues and resolves payment-request codes backed by Redis.
type QRService struct {
	redis *redis.Client
}

func NewQRService(redisClient *redis.Client) *QRService {
	return &QRService{redis: redisClient}
}

// GeneratePaymentRequest stores a single-use request and returns its code
// together with a base64 PNG QR image of the code.
func (s *QRService) GeneratePaymentRequest(ctx context.Context, accountNo int64, amount decimal.Decimal) (string, string, error) {
	if s.redis == nil {
		return "", "", errors.New("payment requests unavailable without redis")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", "", ErrInvalidAmount
	}

	request := PaymentRequest{
		AccountNo: accountNo,
		Amount:    amount,
		CreatedAt: time.Now().Unix(),
		Nonce:     generateNonce(),
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(payload)

	key := fmt.Sprintf("payreq:%s", code)
	if err := s.redis.Set(ctx, key, payload, paymentRequestTTL).Err(); err != nil {
		return "", "", translateStorageError(err)
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return code, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ResolvePaymentRequest consumes a code and returns the deposit
// parameters it encodes. A code resolves at most once.
func (s *QRService) ResolvePaymentRequest(ctx context.Context, code string) (*PaymentRequest, error) {
	if s.redis == nil {
		return nil, ErrPaymentRequestNotFound
	}

	key := fmt.Sprintf("payreq:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrPaymentRequestNotFound
	}
	if err != nil {
		return nil, translateStorageError(err)
	}

	var request PaymentRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, ErrPaymentRequestNotFound
	}

	s.redis.Del(ctx, key)

	return &request, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
