package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/Vasu-4795-cmd/Bank2/internal/audit"
	"github.com/Vasu-4795-cmd/Bank2/internal/middleware"
	"github.com/Vasu-4795-cmd/Bank2/internal/services"
)

// AccountHandler exposes account opening, authentication and balance
// reads over HTTP.
type AccountHandler struct {
	accounts  *services.AccountService
	redis     *redis.Client
	validator *services.ValidationHelper
	audit     *audit.Logger
}

func NewAccountHandler(accounts *services.AccountService, redisClient *redis.Client) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		redis:     redisClient,
		validator: services.NewValidationHelper(),
		audit:     audit.NewLogger(),
	}
}

// LoginRequest is the authentication payload.
type LoginRequest struct {
	AccountNo int64  `json:"account_no" validate:"required,gt=0"`
	PIN       string `json:"pin" validate:"required"`
}

// AuthResponse carries the session token issued after authentication.
type AuthResponse struct {
	Token     string `json:"token"`
	AccountNo int64  `json:"account_no"`
}

// Register opens a new account
// @Summary Open a new account
// @Tags accounts
// @Accept json
// @Produce json
// @Router /accounts [post]
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[ACCOUNT] Registration attempt from IP: %s", r.RemoteAddr)

	var req services.CreateAccountRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		log.Printf("[ACCOUNT] Registration validation failed: %v", err)
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	accountNo, err := h.accounts.CreateAccount(r.Context(), req)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	h.audit.LogAccountCreated(accountNo)

	token, err := generateJWT(accountNo)
	if err != nil {
		log.Printf("[ACCOUNT] JWT generation failed for account %d: %v", accountNo, err)
		services.SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{Token: token, AccountNo: accountNo})
}

// Login authenticates an account number and PIN
// @Summary Login with account number and PIN
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/login [post]
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	ok, err := h.accounts.Authenticate(r.Context(), req.AccountNo, req.PIN)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	// Wrong PIN and unknown account are deliberately the same response.
	if !ok {
		log.Printf("[AUTH] Authentication failed for account %d", req.AccountNo)
		services.SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := generateJWT(req.AccountNo)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for account %d: %v", req.AccountNo, err)
		services.SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for account %d", req.AccountNo)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{Token: token, AccountNo: req.AccountNo})
}

// Logout blacklists the presented token until it expires
// @Summary Logout
// @Tags auth
// @Produce json
// @Router /auth/logout [post]
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // strip "Bearer "

		if h.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := h.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// GetBalance returns the authenticated account's current balance
// @Summary Get current balance
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Router /accounts/balance [get]
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := r.Context().Value(middleware.ContextKeyAccountNo).(int64)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	balance, err := h.accounts.GetBalance(r.Context(), accountNo)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"account_no": accountNo,
		"balance":    balance,
	})
}

// GetAccount returns the authenticated account's details
// @Summary Get account details
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Router /accounts/me [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := r.Context().Value(middleware.ContextKeyAccountNo).(int64)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	acct, err := h.accounts.GetAccount(r.Context(), accountNo)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acct)
}

// decodeJSONBody decodes a single JSON object request body with the
// usual guards. It writes the error response itself and reports whether
// decoding succeeded.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}

func generateJWT(accountNo int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_no": accountNo,
		"exp":        time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	secret := strings.TrimSpace(viper.GetString("jwt.secret_key"))
	return token.SignedString([]byte(secret))
}
