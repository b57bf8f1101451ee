package model

import (
	"encoding/json"
	"strings"
)

// EventType identifies a webhook event emitted by the WhatsApp gateway.
type EventType string

const (
	EventConnectionUpdate EventType = "connection.update"
	EventQRCodeUpdated    EventType = "qrcode.updated"
	EventMessagesUpsert   EventType = "messages.upsert"
	EventMessagesUpdate   EventType = "messages.update"
	EventContactsUpsert   EventType = "contacts.upsert"
)

// knownEventTypes enumerates every event the router dispatches. Anything
// else is acknowledged and dropped.
var knownEventTypes = map[EventType]struct{}{
	EventConnectionUpdate: {},
	EventQRCodeUpdated:    {},
	EventMessagesUpsert:   {},
	EventMessagesUpdate:   {},
	EventContactsUpsert:   {},
}

// MapToEventType normalizes a raw event name to a known EventType. The
// gateway is inconsistent about casing and separators ("CONNECTION_UPDATE"
// vs "connection.update"), so both spellings resolve to the same type.
func MapToEventType(raw string) (EventType, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", ".")
	et := EventType(normalized)
	_, ok := knownEventTypes[et]
	return et, ok
}

// WebhookEnvelope is the outer frame of every gateway webhook delivery.
// Data stays raw until the router knows which payload type applies.
type WebhookEnvelope struct {
	Event    string          `json:"event" validate:"required"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}
