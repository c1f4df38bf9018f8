package domain

import "time"

// EventType names a transaction mutation.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// TransactionEvent is pushed to the owner's live feed and the message bus after a mutation.
type TransactionEvent struct {
	Type          EventType    `json:"type"`
	Kind          Kind         `json:"kind"`
	OwnerID       string       `json:"userId"`
	TransactionID string       `json:"transactionId"`
	Transaction   *Transaction `json:"transaction,omitempty"`
	OccurredAt    time.Time    `json:"occurredAt"`
}

// RoutingKey is the topic used on the message bus, e.g. "transaction.expense.created".
func (e TransactionEvent) RoutingKey() string {
	return "transaction." + string(e.Kind) + "." + string(e.Type)
}
