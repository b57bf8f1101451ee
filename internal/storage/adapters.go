package storage

import (
	"context"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

// ContactRepoAdapter adapts the PostgresRepo to the ContactRepo interface
type ContactRepoAdapter struct {
	postgres *PostgresRepo
}

// NewContactRepoAdapter creates a new contact repository adapter
func NewContactRepoAdapter(postgres *PostgresRepo) ContactRepo {
	return &ContactRepoAdapter{postgres: postgres}
}

func (a *ContactRepoAdapter) Save(ctx context.Context, contact model.Contact) error {
	return a.postgres.SaveContact(ctx, contact)
}

func (a *ContactRepoAdapter) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return a.postgres.UpdateContact(ctx, id, fields)
}

func (a *ContactRepoAdapter) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	return a.postgres.FindContactByID(ctx, id)
}

func (a *ContactRepoAdapter) FindByRemoteJID(ctx context.Context, jid string) (*model.Contact, error) {
	return a.postgres.FindContactByRemoteJID(ctx, jid)
}

func (a *ContactRepoAdapter) List(ctx context.Context, search string, limit, offset int) ([]model.Contact, int64, error) {
	return a.postgres.ListContacts(ctx, search, limit, offset)
}

// ConversationRepoAdapter adapts the PostgresRepo to the ConversationRepo interface
type ConversationRepoAdapter struct {
	postgres *PostgresRepo
}

// NewConversationRepoAdapter creates a new conversation repository adapter
func NewConversationRepoAdapter(postgres *PostgresRepo) ConversationRepo {
	return &ConversationRepoAdapter{postgres: postgres}
}

func (a *ConversationRepoAdapter) FindOrCreateActive(ctx context.Context, conv model.Conversation) (*model.Conversation, bool, error) {
	return a.postgres.FindOrCreateActive(ctx, conv)
}

func (a *ConversationRepoAdapter) FindByConversationID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return a.postgres.FindByConversationID(ctx, conversationID)
}

func (a *ConversationRepoAdapter) FindActiveByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	return a.postgres.FindActiveByContactID(ctx, contactID)
}

func (a *ConversationRepoAdapter) FindLatestRatingByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	return a.postgres.FindLatestRatingByContactID(ctx, contactID)
}

func (a *ConversationRepoAdapter) List(ctx context.Context, filter ConversationFilter) ([]model.Conversation, int64, error) {
	return a.postgres.ListConversations(ctx, filter)
}

func (a *ConversationRepoAdapter) UpdateIf(ctx context.Context, conversationID string, expect ConversationExpectation, fields map[string]interface{}) error {
	return a.postgres.UpdateIf(ctx, conversationID, expect, fields)
}

func (a *ConversationRepoAdapter) TouchLastMessage(ctx context.Context, conversationID string) error {
	return a.postgres.TouchLastMessage(ctx, conversationID)
}

// MessageRepoAdapter adapts the PostgresRepo to the MessageRepo interface
type MessageRepoAdapter struct {
	postgres *PostgresRepo
}

// NewMessageRepoAdapter creates a new message repository adapter
func NewMessageRepoAdapter(postgres *PostgresRepo) MessageRepo {
	return &MessageRepoAdapter{postgres: postgres}
}

func (a *MessageRepoAdapter) InsertIgnoreDuplicate(ctx context.Context, msg model.Message) (bool, error) {
	return a.postgres.InsertMessageIgnoreDuplicate(ctx, msg)
}

func (a *MessageRepoAdapter) FindByMessageID(ctx context.Context, messageID string) (*model.Message, error) {
	return a.postgres.FindMessageByMessageID(ctx, messageID)
}

func (a *MessageRepoAdapter) UpdateStatus(ctx context.Context, messageID, status string) error {
	return a.postgres.UpdateMessageStatus(ctx, messageID, status)
}

func (a *MessageRepoAdapter) ListByConversation(ctx context.Context, conversationID, beforeMessageID string, limit int) ([]model.Message, error) {
	return a.postgres.ListMessagesByConversation(ctx, conversationID, beforeMessageID, limit)
}

// InstanceRepoAdapter adapts the PostgresRepo to the InstanceRepo interface
type InstanceRepoAdapter struct {
	postgres *PostgresRepo
}

// NewInstanceRepoAdapter creates a new instance repository adapter
func NewInstanceRepoAdapter(postgres *PostgresRepo) InstanceRepo {
	return &InstanceRepoAdapter{postgres: postgres}
}

func (a *InstanceRepoAdapter) Save(ctx context.Context, instance model.GatewayInstance) error {
	return a.postgres.SaveInstance(ctx, instance)
}

func (a *InstanceRepoAdapter) Update(ctx context.Context, instanceName string, fields map[string]interface{}) error {
	return a.postgres.UpdateInstance(ctx, instanceName, fields)
}

func (a *InstanceRepoAdapter) FindByName(ctx context.Context, instanceName string) (*model.GatewayInstance, error) {
	return a.postgres.FindInstanceByName(ctx, instanceName)
}

func (a *InstanceRepoAdapter) ListActive(ctx context.Context) ([]model.GatewayInstance, error) {
	return a.postgres.ListActiveInstances(ctx)
}

func (a *InstanceRepoAdapter) Delete(ctx context.Context, instanceName string) error {
	return a.postgres.DeleteInstance(ctx, instanceName)
}

// BotConfigRepoAdapter adapts the PostgresRepo to the BotConfigRepo interface
type BotConfigRepoAdapter struct {
	postgres *PostgresRepo
}

// NewBotConfigRepoAdapter creates a new bot config repository adapter
func NewBotConfigRepoAdapter(postgres *PostgresRepo) BotConfigRepo {
	return &BotConfigRepoAdapter{postgres: postgres}
}

func (a *BotConfigRepoAdapter) GetOrCreate(ctx context.Context) (*model.ChatbotConfig, error) {
	return a.postgres.GetOrCreateBotConfig(ctx)
}

func (a *BotConfigRepoAdapter) Update(ctx context.Context, fields map[string]interface{}) (*model.ChatbotConfig, error) {
	return a.postgres.UpdateBotConfig(ctx, fields)
}

// QuickReplyRepoAdapter adapts the PostgresRepo to the QuickReplyRepo interface
type QuickReplyRepoAdapter struct {
	postgres *PostgresRepo
}

// NewQuickReplyRepoAdapter creates a new quick reply repository adapter
func NewQuickReplyRepoAdapter(postgres *PostgresRepo) QuickReplyRepo {
	return &QuickReplyRepoAdapter{postgres: postgres}
}

func (a *QuickReplyRepoAdapter) Save(ctx context.Context, reply model.QuickReply) error {
	return a.postgres.SaveQuickReply(ctx, reply)
}

func (a *QuickReplyRepoAdapter) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return a.postgres.UpdateQuickReply(ctx, id, fields)
}

func (a *QuickReplyRepoAdapter) Delete(ctx context.Context, id string) error {
	return a.postgres.DeleteQuickReply(ctx, id)
}

func (a *QuickReplyRepoAdapter) List(ctx context.Context, teamIDs []string) ([]model.QuickReply, error) {
	return a.postgres.ListQuickReplies(ctx, teamIDs)
}

// ClassificationRepoAdapter adapts the PostgresRepo to the ClassificationRepo interface
type ClassificationRepoAdapter struct {
	postgres *PostgresRepo
}

// NewClassificationRepoAdapter creates a new classification repository adapter
func NewClassificationRepoAdapter(postgres *PostgresRepo) ClassificationRepo {
	return &ClassificationRepoAdapter{postgres: postgres}
}

func (a *ClassificationRepoAdapter) Save(ctx context.Context, classification model.Classification) error {
	return a.postgres.SaveClassification(ctx, classification)
}

func (a *ClassificationRepoAdapter) List(ctx context.Context, includeInactive bool) ([]model.Classification, error) {
	return a.postgres.ListClassifications(ctx, includeInactive)
}

func (a *ClassificationRepoAdapter) Deactivate(ctx context.Context, id string) error {
	return a.postgres.DeactivateClassification(ctx, id)
}

// DirectoryRepoAdapter adapts the PostgresRepo to the DirectoryRepo interface
type DirectoryRepoAdapter struct {
	postgres *PostgresRepo
}

// NewDirectoryRepoAdapter creates a new directory repository adapter
func NewDirectoryRepoAdapter(postgres *PostgresRepo) DirectoryRepo {
	return &DirectoryRepoAdapter{postgres: postgres}
}

func (a *DirectoryRepoAdapter) FindAgent(ctx context.Context, agentID string) (*model.Agent, error) {
	return a.postgres.FindAgent(ctx, agentID)
}

func (a *DirectoryRepoAdapter) ListTeams(ctx context.Context) ([]model.Team, error) {
	return a.postgres.ListTeams(ctx)
}
