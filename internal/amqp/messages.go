package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExpenseChangedMessage announces one committed mutation of the expense
// collection. Consumers reload the collection rather than trusting a payload.
type ExpenseChangedMessage struct {
	MessageID string    `json:"message_id"`
	ExpenseID string    `json:"expense_id"`
	Operation string    `json:"operation"`
	Version   uint64    `json:"version"` // per publishing process, restarts at 0
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseChangedMessage creates a change message with a fresh message id.
func NewExpenseChangedMessage(expenseID, operation string, version uint64) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		MessageID: uuid.NewString(),
		ExpenseID: expenseID,
		Operation: operation,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON creates a message from JSON bytes
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
