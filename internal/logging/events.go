package logging

import (
	"time"

	"go.uber.org/zap"
)

// EventType names a structured event in the audit trail.
type EventType string

const (
	EventExtract      EventType = "exif_extract"
	EventNormalize    EventType = "image_normalize"
	EventLLMRequest   EventType = "llm_request"
	EventLLMResponse  EventType = "llm_response"
	EventLLMError     EventType = "llm_error"
	EventAuditSuccess EventType = "audit_success"
	EventAuditFailure EventType = "audit_failure"
	EventHTTPRequest  EventType = "http_request"
)

// Event is one structured trail entry. Zero-valued fields are omitted.
type Event struct {
	Type      EventType
	RequestID string
	Target    string
	Success   bool
	Duration  time.Duration
	Error     string
	Fields    map[string]interface{}
}

// LogEvent writes an event to the "events" child logger with typed fields.
func LogEvent(e Event) {
	if !IsCategoryEnabled("events") {
		return
	}
	fields := make([]zap.Field, 0, 6+len(e.Fields))
	fields = append(fields, zap.String("event", string(e.Type)), zap.Bool("success", e.Success))
	if e.RequestID != "" {
		fields = append(fields, zap.String("req", e.RequestID))
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}
	if e.Duration > 0 {
		fields = append(fields, zap.Int64("dur_ms", e.Duration.Milliseconds()))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	for k, v := range e.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	Root().Named("events").Info(string(e.Type), fields...)
}
