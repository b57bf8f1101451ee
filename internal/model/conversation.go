package model

import (
	"time"
)

// ConversationStatus is the queue state of an attendance conversation.
type ConversationStatus string

const (
	StatusWaiting    ConversationStatus = "waiting"
	StatusInProgress ConversationStatus = "in_progress"
	StatusClosed     ConversationStatus = "closed"
)

// BotState tracks where a conversation sits in the chatbot flow.
type BotState string

const (
	BotStateWelcome      BotState = "welcome"
	BotStateMenu         BotState = "menu"
	BotStateWaitingAgent BotState = "waiting_agent"
	BotStateWithAgent    BotState = "with_agent"
	BotStateRating       BotState = "rating"
	BotStateFinished     BotState = "finished"
)

// Conversation is one attendance thread with a contact. At most one
// conversation per contact may be in a non-closed status; the storage layer
// enforces this with a partial unique index on contact_id.
type Conversation struct {
	ID              int64              `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ConversationID  string             `gorm:"column:conversation_id;type:text;uniqueIndex:idx_conversations_conversation_id" json:"id" validate:"required"`
	Protocol        string             `gorm:"column:protocol;type:text;uniqueIndex:idx_conversations_protocol" json:"protocol"`
	ContactID       string             `gorm:"column:contact_id;type:text;index:idx_conversations_contact_id" json:"contact_id" validate:"required"`
	InstanceName    string             `gorm:"column:instance_name;type:text" json:"instance_name"`
	Status          ConversationStatus `gorm:"column:status;type:text;index:idx_conversations_status" json:"status"`
	BotState        BotState           `gorm:"column:bot_state;type:text" json:"bot_state"`
	TeamID          string             `gorm:"column:team_id;type:text;index:idx_conversations_team_id" json:"team_id"`
	AssignedAgentID string             `gorm:"column:assigned_agent_id;type:text;index:idx_conversations_assigned_agent_id" json:"assigned_agent_id"`
	Classification  string             `gorm:"column:classification;type:text" json:"classification"`
	Rating          int                `gorm:"column:rating" json:"rating"`
	ClosingComment  string             `gorm:"column:closing_comment;type:text" json:"closing_comment"`
	ClosedByID      string             `gorm:"column:closed_by_id;type:text" json:"closed_by_id"`
	ClosedAt        *time.Time         `gorm:"column:closed_at" json:"closed_at,omitempty"`
	FirstResponseAt *time.Time         `gorm:"column:first_response_at" json:"first_response_at,omitempty"`
	LastMessageAt   time.Time          `gorm:"column:last_message_at;index:idx_conversations_last_message_at" json:"last_message_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Active reports whether the conversation still occupies the contact's
// single active slot.
func (c *Conversation) Active() bool {
	return c.Status != StatusClosed
}

// AwaitingRating reports whether a closed conversation is still collecting
// the contact's satisfaction score.
func (c *Conversation) AwaitingRating() bool {
	return c.Status == StatusClosed && c.BotState == BotStateRating
}
