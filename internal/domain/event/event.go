package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a fire-and-forget notification of a lifecycle transition or catalog change
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	TenantID      string                 `json:"tenant_id"`
	EntityType    string                 `json:"entity_type"`
	EntityID      int64                  `json:"entity_id"`
	ActorID       *int64                 `json:"actor_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with a fresh ID and timestamp
func NewEvent(eventType Type, tenantID, entityType string, entityID int64, actorID *int64, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		TenantID:      tenantID,
		EntityType:    entityType,
		EntityID:      entityID,
		ActorID:       actorID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: id,
	}
}

// WithCorrelation returns a copy of the event linked to an existing correlation chain
func (e *Event) WithCorrelation(correlationID string) *Event {
	cp := *e
	cp.CorrelationID = correlationID
	return &cp
}

// WithPayload returns a new Event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
