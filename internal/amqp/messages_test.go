package amqp

import (
	"testing"
	"time"
)

func TestNewExpenseRecordedMessage(t *testing.T) {
	msg := NewExpenseRecordedMessage("exp-123", "user_abc123def456")

	if msg.ID != "exp-123" {
		t.Errorf("NewExpenseRecordedMessage() ID = %v, want %v", msg.ID, "exp-123")
	}
	if msg.UserID != "user_abc123def456" {
		t.Errorf("NewExpenseRecordedMessage() UserID = %v, want %v", msg.UserID, "user_abc123def456")
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewExpenseRecordedMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewExpenseRecordedMessage() Timestamp should be recent")
	}
}

func TestReminderExecutedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &ReminderExecutedMessage{
		ExecutionID:   "exec-1",
		ReminderID:    "rem-1",
		UserID:        "user_abc123def456",
		Year:          2025,
		Month:         3,
		TransactionID: "exp-1",
		Timestamp:     timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReminderExecutedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReminderExecutedMessageFromJSON() error = %v", err)
	}

	if parsed.ExecutionID != msg.ExecutionID {
		t.Errorf("Parsed ExecutionID = %v, want %v", parsed.ExecutionID, msg.ExecutionID)
	}
	if parsed.Year != msg.Year || parsed.Month != msg.Month {
		t.Errorf("Parsed period = %d-%d, want %d-%d", parsed.Year, parsed.Month, msg.Year, msg.Month)
	}
	if parsed.TransactionID != msg.TransactionID {
		t.Errorf("Parsed TransactionID = %v, want %v", parsed.TransactionID, msg.TransactionID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestExpenseRecordedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": 42, "user_id": ["nope"]}`)

	_, err := ExpenseRecordedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ExpenseRecordedMessageFromJSON() should fail with invalid JSON")
	}
}
