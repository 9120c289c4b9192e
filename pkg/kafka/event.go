package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix namespaces every topic this service writes.
const TopicPrefix = "cardshop"

// EventVersion is the envelope schema version stamped on new events.
const EventVersion = 1

// Topic builds a topic name of the form <prefix>.<domain>.<action>.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

// Event is the envelope every message value carries. Data holds the
// type-specific payload as raw JSON.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent stamps a fresh id, the current UTC time and EventVersion onto
// an envelope around data.
func NewEvent(eventType, aggregateID, aggregateType, source string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       EventVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          dataBytes,
		Metadata:      make(map[string]string),
	}, nil
}

// WithCorrelationID sets the correlation ID on the event.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithMetadata adds a key-value pair to the event metadata.
func (e *Event) WithMetadata(key, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Marshal encodes the envelope as a message value.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Validate reports envelopes missing the fields consumers route on.
// Publish refuses envelopes that fail it.
func (e *Event) Validate() error {
	var errs []error
	if e.EventID == "" {
		errs = append(errs, errors.New("missing event_id"))
	}
	if e.EventType == "" {
		errs = append(errs, errors.New("missing event_type"))
	}
	if e.Version < 1 || e.Version > EventVersion {
		errs = append(errs, fmt.Errorf("unsupported version %d", e.Version))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	return nil
}
