package event

import (
	"encoding/json"
	"fmt"

	"boxoffice/entities"

	"github.com/ThreeDotsLabs/watermill/message"
)

// NewAuditLogHandler stores every event of the topic, whatever its type.
func NewAuditLogHandler(auditLog AuditLog) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var event struct {
			Header entities.EventHeader `json:"header"`
		}
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return entities.PermanentError{Err: fmt.Errorf("malformed event %s: %w", msg.UUID, err)}
		}

		eventName := Marshaler.NameFromMessage(msg)
		if eventName == "" || event.Header.ID == "" {
			return entities.PermanentError{Err: fmt.Errorf("event %s has no name or id", msg.UUID)}
		}

		return auditLog.Add(msg.Context(), entities.AuditEntry{
			EventID:     event.Header.ID,
			PublishedAt: event.Header.PublishedAt,
			EventName:   eventName,
			Payload:     msg.Payload,
		})
	}
}
