package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Event is one structured audit record. Every ledger mutation and every
// rejected attempt produces exactly one event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Reference string    `json:"reference"`
	AccountNo int64     `json:"account_no"`
	Amount    string    `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

// LogOperation records a committed deposit or withdrawal.
func (a *Logger) LogOperation(reference string, accountNo int64, eventType string, amount, balanceAfter decimal.Decimal) {
	event := Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Reference: reference,
		AccountNo: accountNo,
		Amount:    amount.StringFixed(2),
		Status:    "SUCCESS",
		Details: map[string]string{
			"balance_after": balanceAfter.StringFixed(2),
		},
	}
	a.log(event)
}

// LogError records a failed or aborted operation.
func (a *Logger) LogError(reference string, accountNo int64, err error) {
	event := Event{
		Timestamp: time.Now(),
		EventType: "ERROR",
		Reference: reference,
		AccountNo: accountNo,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	}
	a.log(event)
}

// LogAccountCreated records a successful account opening.
func (a *Logger) LogAccountCreated(accountNo int64) {
	event := Event{
		Timestamp: time.Now(),
		EventType: "ACCOUNT_CREATED",
		AccountNo: accountNo,
		Status:    "SUCCESS",
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
