package model

import (
	"time"

	"gorm.io/datatypes"
)

// Message kinds, derived from the gateway's tagged-union message body.
const (
	MessageKindText     = "text"
	MessageKindImage    = "image"
	MessageKindVideo    = "video"
	MessageKindAudio    = "audio"
	MessageKindDocument = "document"
	MessageKindSticker  = "sticker"
	MessageKindUnknown  = "unknown"
)

// Delivery statuses for a message. Inbound messages land as received;
// outbound messages progress pending -> sent -> delivered -> read.
const (
	DeliveryReceived  = "received"
	DeliveryPending   = "pending"
	DeliverySent      = "sent"
	DeliveryDelivered = "delivered"
	DeliveryRead      = "read"
)

// gatewayStatusCodes maps the numeric ack codes reported by the gateway's
// message update events onto delivery statuses.
var gatewayStatusCodes = map[int]string{
	1: DeliveryPending,
	2: DeliverySent,
	3: DeliveryDelivered,
	4: DeliveryRead,
}

// MapGatewayStatus translates a gateway ack code to a delivery status.
// Unknown codes return false and must be ignored by callers.
func MapGatewayStatus(code int) (string, bool) {
	status, ok := gatewayStatusCodes[code]
	return status, ok
}

// Message is a single WhatsApp message inside a conversation. MessageID is
// the gateway-assigned identifier and is unique; re-delivered webhooks with
// the same ID are dropped at insert time.
type Message struct {
	ID              int64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MessageID       string         `gorm:"column:message_id;type:text;uniqueIndex:idx_messages_message_id" json:"message_id" validate:"required"`
	ConversationID  string         `gorm:"column:conversation_id;type:text;index:idx_messages_conversation_id" json:"conversation_id"`
	RemoteJID       string         `gorm:"column:remote_jid;type:text;index:idx_messages_remote_jid" json:"remote_jid"`
	FromMe          bool           `gorm:"column:from_me" json:"from_me"`
	SenderAgentID   string         `gorm:"column:sender_agent_id;type:text" json:"sender_agent_id"`
	Kind            string         `gorm:"column:kind;type:text" json:"kind"`
	Content         string         `gorm:"column:content;type:text" json:"content"`
	MediaURL        string         `gorm:"column:media_url;type:text" json:"media_url"`
	Mimetype        string         `gorm:"column:mimetype;type:text" json:"mimetype"`
	Filename        string         `gorm:"column:filename;type:text" json:"filename"`
	QuotedMessageID string         `gorm:"column:quoted_message_id;type:text" json:"quoted_message_id"`
	Status          string         `gorm:"column:status;type:text" json:"status"`
	RawPayload      datatypes.JSON `gorm:"column:raw_payload;type:jsonb" json:"-"`
	Timestamp       time.Time      `gorm:"column:timestamp;index:idx_messages_timestamp" json:"timestamp"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}
