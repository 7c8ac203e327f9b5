package amqp

import (
	"encoding/json"
	"time"
)

// Messages stay lightweight: consumers fetch full records from the store by id.

// ExpenseRecordedMessage announces a newly persisted transaction.
type ExpenseRecordedMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseRecordedMessage(id, userID string) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{ID: id, UserID: userID, Timestamp: time.Now()}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReminderExecutedMessage announces a completed reminder execution for a
// period, carrying both sides of the execution/transaction link.
type ReminderExecutedMessage struct {
	ExecutionID   string    `json:"execution_id"`
	ReminderID    string    `json:"reminder_id"`
	UserID        string    `json:"user_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func (m *ReminderExecutedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderExecutedMessageFromJSON(data []byte) (*ReminderExecutedMessage, error) {
	var msg ReminderExecutedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
