// Package events publishes ledger and bookkeeping events so other processes
// (notifications, analytics) can follow budget consumption without polling.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types emitted by the services.
const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
	TransactionsReset  = "transactions.reset"
	BudgetConsumed     = "budget.consumed"
	BudgetRefunded     = "budget.refunded"
	BudgetsReset       = "budgets.reset"
)

// Event is the JSON envelope published for every domain change.
type Event struct {
	Type       string         `json:"type"`
	UserID     string         `json:"user_id"`
	ResourceID string         `json:"resource_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New builds an event stamped with the current time.
func New(eventType, userID, resourceID string, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		ResourceID: resourceID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON encodes the event.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event.
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
