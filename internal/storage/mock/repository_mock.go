package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
)

// --- ContactRepo Mock ---

// ContactRepoMock mocks the ContactRepo interface
type ContactRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ContactRepoMock) Save(ctx context.Context, contact model.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

// Update mocks the Update method
func (m *ContactRepoMock) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *ContactRepoMock) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

// FindByRemoteJID mocks the FindByRemoteJID method
func (m *ContactRepoMock) FindByRemoteJID(ctx context.Context, jid string) (*model.Contact, error) {
	args := m.Called(ctx, jid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

// List mocks the List method
func (m *ContactRepoMock) List(ctx context.Context, search string, limit, offset int) ([]model.Contact, int64, error) {
	args := m.Called(ctx, search, limit, offset)
	var contacts []model.Contact
	if args.Get(0) != nil {
		contacts = args.Get(0).([]model.Contact)
	}
	return contacts, args.Get(1).(int64), args.Error(2)
}

// --- ConversationRepo Mock ---

// ConversationRepoMock mocks the ConversationRepo interface
type ConversationRepoMock struct {
	mock.Mock
}

// FindOrCreateActive mocks the FindOrCreateActive method
func (m *ConversationRepoMock) FindOrCreateActive(ctx context.Context, conv model.Conversation) (*model.Conversation, bool, error) {
	args := m.Called(ctx, conv)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Conversation), args.Bool(1), args.Error(2)
}

// FindByConversationID mocks the FindByConversationID method
func (m *ConversationRepoMock) FindByConversationID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

// FindActiveByContactID mocks the FindActiveByContactID method
func (m *ConversationRepoMock) FindActiveByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

// FindLatestRatingByContactID mocks the FindLatestRatingByContactID method
func (m *ConversationRepoMock) FindLatestRatingByContactID(ctx context.Context, contactID string) (*model.Conversation, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

// List mocks the List method
func (m *ConversationRepoMock) List(ctx context.Context, filter storage.ConversationFilter) ([]model.Conversation, int64, error) {
	args := m.Called(ctx, filter)
	var convs []model.Conversation
	if args.Get(0) != nil {
		convs = args.Get(0).([]model.Conversation)
	}
	return convs, args.Get(1).(int64), args.Error(2)
}

// UpdateIf mocks the UpdateIf method
func (m *ConversationRepoMock) UpdateIf(ctx context.Context, conversationID string, expect storage.ConversationExpectation, fields map[string]interface{}) error {
	args := m.Called(ctx, conversationID, expect, fields)
	return args.Error(0)
}

// TouchLastMessage mocks the TouchLastMessage method
func (m *ConversationRepoMock) TouchLastMessage(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

// --- MessageRepo Mock ---

// MessageRepoMock mocks the MessageRepo interface
type MessageRepoMock struct {
	mock.Mock
}

// InsertIgnoreDuplicate mocks the InsertIgnoreDuplicate method
func (m *MessageRepoMock) InsertIgnoreDuplicate(ctx context.Context, msg model.Message) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

// FindByMessageID mocks the FindByMessageID method
func (m *MessageRepoMock) FindByMessageID(ctx context.Context, messageID string) (*model.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method
func (m *MessageRepoMock) UpdateStatus(ctx context.Context, messageID, status string) error {
	args := m.Called(ctx, messageID, status)
	return args.Error(0)
}

// ListByConversation mocks the ListByConversation method
func (m *MessageRepoMock) ListByConversation(ctx context.Context, conversationID, beforeMessageID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, conversationID, beforeMessageID, limit)
	var msgs []model.Message
	if args.Get(0) != nil {
		msgs = args.Get(0).([]model.Message)
	}
	return msgs, args.Error(1)
}

// --- InstanceRepo Mock ---

// InstanceRepoMock mocks the InstanceRepo interface
type InstanceRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *InstanceRepoMock) Save(ctx context.Context, instance model.GatewayInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

// Update mocks the Update method
func (m *InstanceRepoMock) Update(ctx context.Context, instanceName string, fields map[string]interface{}) error {
	args := m.Called(ctx, instanceName, fields)
	return args.Error(0)
}

// FindByName mocks the FindByName method
func (m *InstanceRepoMock) FindByName(ctx context.Context, instanceName string) (*model.GatewayInstance, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GatewayInstance), args.Error(1)
}

// ListActive mocks the ListActive method
func (m *InstanceRepoMock) ListActive(ctx context.Context) ([]model.GatewayInstance, error) {
	args := m.Called(ctx)
	var instances []model.GatewayInstance
	if args.Get(0) != nil {
		instances = args.Get(0).([]model.GatewayInstance)
	}
	return instances, args.Error(1)
}

// Delete mocks the Delete method
func (m *InstanceRepoMock) Delete(ctx context.Context, instanceName string) error {
	args := m.Called(ctx, instanceName)
	return args.Error(0)
}

// --- BotConfigRepo Mock ---

// BotConfigRepoMock mocks the BotConfigRepo interface
type BotConfigRepoMock struct {
	mock.Mock
}

// GetOrCreate mocks the GetOrCreate method
func (m *BotConfigRepoMock) GetOrCreate(ctx context.Context) (*model.ChatbotConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatbotConfig), args.Error(1)
}

// Update mocks the Update method
func (m *BotConfigRepoMock) Update(ctx context.Context, fields map[string]interface{}) (*model.ChatbotConfig, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatbotConfig), args.Error(1)
}

// --- QuickReplyRepo Mock ---

// QuickReplyRepoMock mocks the QuickReplyRepo interface
type QuickReplyRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *QuickReplyRepoMock) Save(ctx context.Context, reply model.QuickReply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

// Update mocks the Update method
func (m *QuickReplyRepoMock) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// Delete mocks the Delete method
func (m *QuickReplyRepoMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// List mocks the List method
func (m *QuickReplyRepoMock) List(ctx context.Context, teamIDs []string) ([]model.QuickReply, error) {
	args := m.Called(ctx, teamIDs)
	var replies []model.QuickReply
	if args.Get(0) != nil {
		replies = args.Get(0).([]model.QuickReply)
	}
	return replies, args.Error(1)
}

// --- ClassificationRepo Mock ---

// ClassificationRepoMock mocks the ClassificationRepo interface
type ClassificationRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ClassificationRepoMock) Save(ctx context.Context, classification model.Classification) error {
	args := m.Called(ctx, classification)
	return args.Error(0)
}

// List mocks the List method
func (m *ClassificationRepoMock) List(ctx context.Context, includeInactive bool) ([]model.Classification, error) {
	args := m.Called(ctx, includeInactive)
	var classifications []model.Classification
	if args.Get(0) != nil {
		classifications = args.Get(0).([]model.Classification)
	}
	return classifications, args.Error(1)
}

// Deactivate mocks the Deactivate method
func (m *ClassificationRepoMock) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- DirectoryRepo Mock ---

// DirectoryRepoMock mocks the DirectoryRepo interface
type DirectoryRepoMock struct {
	mock.Mock
}

// FindAgent mocks the FindAgent method
func (m *DirectoryRepoMock) FindAgent(ctx context.Context, agentID string) (*model.Agent, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

// ListTeams mocks the ListTeams method
func (m *DirectoryRepoMock) ListTeams(ctx context.Context) ([]model.Team, error) {
	args := m.Called(ctx)
	var teams []model.Team
	if args.Get(0) != nil {
		teams = args.Get(0).([]model.Team)
	}
	return teams, args.Error(1)
}
