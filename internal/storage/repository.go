package storage

import (
	"context"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

// ContactRepo defines persistence for WhatsApp contacts.
type ContactRepo interface {
	// Save creates a new contact.
	Save(ctx context.Context, contact model.Contact) error
	// Update applies the given column values to a contact by ID.
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// FindByID loads one contact by its internal ID.
	FindByID(ctx context.Context, id string) (*model.Contact, error)
	// FindByRemoteJID loads one contact by its WhatsApp JID.
	FindByRemoteJID(ctx context.Context, jid string) (*model.Contact, error)
	// List returns a page of contacts, optionally filtered by a search term
	// matched against names and phone number, plus the total count.
	List(ctx context.Context, search string, limit, offset int) ([]model.Contact, int64, error)
}

// ConversationFilter narrows a conversation listing.
type ConversationFilter struct {
	Statuses  []model.ConversationStatus
	TeamID    string
	AgentID   string
	ContactID string
	Limit     int
	Offset    int
}

// ConversationExpectation guards a conditional update. Zero fields are not
// checked.
type ConversationExpectation struct {
	Status   model.ConversationStatus
	BotState model.BotState
}

// ConversationRepo defines persistence for attendance conversations.
type ConversationRepo interface {
	// FindOrCreateActive atomically returns the contact's active conversation,
	// creating the given one when no active conversation exists. The bool
	// reports whether a row was created.
	FindOrCreateActive(ctx context.Context, conv model.Conversation) (*model.Conversation, bool, error)
	// FindByConversationID loads one conversation by its public ID.
	FindByConversationID(ctx context.Context, conversationID string) (*model.Conversation, error)
	// FindActiveByContactID loads the contact's single non-closed conversation.
	FindActiveByContactID(ctx context.Context, contactID string) (*model.Conversation, error)
	// FindLatestRatingByContactID loads the contact's most recently closed
	// conversation that is still collecting a rating.
	FindLatestRatingByContactID(ctx context.Context, contactID string) (*model.Conversation, error)
	// List returns a filtered page of conversations plus the total count,
	// most recent activity first.
	List(ctx context.Context, filter ConversationFilter) ([]model.Conversation, int64, error)
	// UpdateIf applies the given column values only while the expectation
	// holds. A row that exists but no longer matches yields ErrConflict.
	UpdateIf(ctx context.Context, conversationID string, expect ConversationExpectation, fields map[string]interface{}) error
	// TouchLastMessage bumps the conversation's last activity timestamp.
	TouchLastMessage(ctx context.Context, conversationID string) error
}

// MessageRepo defines persistence for conversation messages.
type MessageRepo interface {
	// InsertIgnoreDuplicate stores the message unless its gateway ID was seen
	// before. The bool reports whether a row was inserted.
	InsertIgnoreDuplicate(ctx context.Context, msg model.Message) (bool, error)
	// FindByMessageID loads one message by its gateway-assigned ID.
	FindByMessageID(ctx context.Context, messageID string) (*model.Message, error)
	// UpdateStatus sets the delivery status of a message by its gateway ID.
	UpdateStatus(ctx context.Context, messageID, status string) error
	// ListByConversation returns up to limit messages of a conversation,
	// newest first, older than the given message when beforeMessageID is set.
	ListByConversation(ctx context.Context, conversationID, beforeMessageID string, limit int) ([]model.Message, error)
}

// InstanceRepo defines persistence for gateway instances.
type InstanceRepo interface {
	Save(ctx context.Context, instance model.GatewayInstance) error
	Update(ctx context.Context, instanceName string, fields map[string]interface{}) error
	FindByName(ctx context.Context, instanceName string) (*model.GatewayInstance, error)
	ListActive(ctx context.Context) ([]model.GatewayInstance, error)
	Delete(ctx context.Context, instanceName string) error
}

// BotConfigRepo defines persistence for the chatbot configuration row.
type BotConfigRepo interface {
	// GetOrCreate returns the configuration, writing the defaults first if no
	// row exists yet.
	GetOrCreate(ctx context.Context) (*model.ChatbotConfig, error)
	Update(ctx context.Context, fields map[string]interface{}) (*model.ChatbotConfig, error)
}

// QuickReplyRepo defines persistence for canned agent replies.
type QuickReplyRepo interface {
	Save(ctx context.Context, reply model.QuickReply) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	// List returns active quick replies visible to the given teams. Global
	// replies (empty team) are always included.
	List(ctx context.Context, teamIDs []string) ([]model.QuickReply, error)
}

// ClassificationRepo defines persistence for closing classifications.
type ClassificationRepo interface {
	Save(ctx context.Context, classification model.Classification) error
	List(ctx context.Context, includeInactive bool) ([]model.Classification, error)
	Deactivate(ctx context.Context, id string) error
}

// DirectoryRepo reads the agent and team projections synced from the ERP.
type DirectoryRepo interface {
	// FindAgent loads an agent with its team memberships.
	FindAgent(ctx context.Context, agentID string) (*model.Agent, error)
	ListTeams(ctx context.Context) ([]model.Team, error)
}
