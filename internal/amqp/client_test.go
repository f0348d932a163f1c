package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"timeout", errors.New("dial tcp 10.0.0.1:5672: i/o timeout"), true},
		{"auth failure", errors.New("Exception (403) Reason: \"username or password not allowed\""), false},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExpenseChangedMessageJSON(t *testing.T) {
	msg := NewExpenseChangedMessage("1704883200000", "create", 4)
	if msg.MessageID == "" {
		t.Fatal("expected a message id")
	}
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ExpenseChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.MessageID != msg.MessageID || got.ExpenseID != "1704883200000" || got.Operation != "create" || got.Version != 4 {
		t.Fatalf("unexpected message %+v", got)
	}
	if other := NewExpenseChangedMessage("1", "delete", 5); other.MessageID == msg.MessageID {
		t.Fatal("message ids must differ")
	}
	if _, err := ExpenseChangedMessageFromJSON([]byte("nope")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
