package amqp

import (
	"encoding/json"
	"time"
)

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent announces a change to one transaction. It carries only
// identifiers; consumers fetch the current record themselves.
type TransactionEvent struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(action, userID, transactionID string, version int64) TransactionEvent {
	return TransactionEvent{
		Action:        action,
		TransactionID: transactionID,
		UserID:        userID,
		Version:       version,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return TransactionEvent{}, err
	}
	return msg, nil
}
