package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventLoanCreated        = "loan_created"
	EventLoanApproved       = "loan_approved"
	EventLoanRejected       = "loan_rejected"
	EventLoanReturned       = "loan_returned"
	EventReservationCreated = "reservation_created"
	EventReservationUpdated = "reservation_updated"
	EventResourceChanged    = "resource_changed"
)

// LoanEventPayload is the minimal loan snapshot for event consumers.
type LoanEventPayload struct {
	LoanID      string    `json:"loan_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	Status      string    `json:"status"`
	ResourceIDs []string  `json:"resource_ids"`
	Missing     []string  `json:"missing,omitempty"`
	When        time.Time `json:"when"`
}

// ReservationEventPayload is the minimal reservation snapshot for
// event consumers.
type ReservationEventPayload struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	Date          time.Time `json:"date"`
	Slot          string    `json:"slot"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for mutation events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
