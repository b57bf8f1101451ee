package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/gateway"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/storage"
)

func TestListConversations_AppliesVisibility(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", TeamIDs: []string{"team-support"}})
	ctx := agentContext(t, m, agent)

	m.conversationRepo.On("List", mock.Anything, mock.AnythingOfType("storage.ConversationFilter")).
		Return([]model.Conversation{
			{ConversationID: "mine", Status: model.StatusInProgress, AssignedAgentID: "agent-1"},
			{ConversationID: "theirs", Status: model.StatusInProgress, AssignedAgentID: "agent-2"},
			{ConversationID: "queue", Status: model.StatusWaiting, TeamID: "team-support"},
		}, int64(3), nil)

	convs, total, err := svc.ListConversations(ctx, storage.ConversationFilter{Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(3), total)
	require.Len(t, convs, 2)
	assert.Equal(t, "mine", convs[0].ConversationID)
	assert.Equal(t, "queue", convs[1].ConversationID)
}

func TestListConversations_UnknownAgent(t *testing.T) {
	svc, m := newTestService()
	m.directoryRepo.On("FindAgent", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)
	ctx := actorContext(t, "ghost")

	_, _, err := svc.ListConversations(ctx, storage.ConversationFilter{})
	assert.True(t, apperrors.IsUnauthorizedError(err))
}

func TestListConversations_DeactivatedAgent(t *testing.T) {
	svc, m := newTestService()
	m.directoryRepo.On("FindAgent", mock.Anything, "agent-1").
		Return(&model.Agent{ID: "agent-1", IsActive: false}, nil)
	ctx := actorContext(t, "agent-1")

	_, _, err := svc.ListConversations(ctx, storage.ConversationFilter{})
	assert.True(t, apperrors.IsForbiddenError(err))
}

func TestSendText_ClaimsWaitingConversation(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", TeamIDs: []string{"team-support"}})
	ctx := agentContext(t, m, agent)

	conv := model.NewConversation(&model.Conversation{
		ConversationID: "conv-1",
		ContactID:      "contact-1",
		InstanceName:   "attendance-main",
		Status:         model.StatusWaiting,
		TeamID:         "team-support",
		BotState:       model.BotStateWaitingAgent,
	})
	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").Return(conv, nil)
	m.instanceRepo.On("FindByName", mock.Anything, "attendance-main").
		Return(&model.GatewayInstance{InstanceName: "attendance-main", ConnectionStatus: model.InstanceConnected}, nil)
	m.contactRepo.On("FindByID", mock.Anything, "contact-1").
		Return(model.NewContact(&model.Contact{ID: "contact-1", RemoteJID: "5511999990000@s.whatsapp.net"}), nil)
	m.gatewayClient.On("SendText", mock.Anything, "attendance-main", "5511999990000", "bom dia").
		Return(&gateway.SendResult{MessageID: "wa-msg-1"}, nil)
	m.messageRepo.On("InsertIgnoreDuplicate", mock.Anything, mock.AnythingOfType("model.Message")).Return(true, nil)
	m.conversationRepo.On("UpdateIf", mock.Anything, "conv-1",
		storage.ConversationExpectation{Status: model.StatusWaiting}, mock.Anything).
		Run(func(args mock.Arguments) {
			fields := args.Get(3).(map[string]interface{})
			assert.Equal(t, string(model.StatusInProgress), fields["status"])
			assert.Equal(t, "agent-1", fields["assigned_agent_id"])
			assert.Equal(t, string(model.BotStateWithAgent), fields["bot_state"])
		}).
		Return(nil)
	m.conversationRepo.On("TouchLastMessage", mock.Anything, "conv-1").Return(nil)

	msg, err := svc.SendText(ctx, "conv-1", "bom dia")
	require.NoError(t, err)

	assert.Equal(t, "wa-msg-1", msg.MessageID)
	assert.True(t, msg.FromMe)
	assert.Equal(t, "agent-1", msg.SenderAgentID)
	m.conversationRepo.AssertExpectations(t)
}

func TestSendText_ClosedConversationRejected(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", TeamIDs: []string{"team-support"}})
	ctx := agentContext(t, m, agent)

	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
		Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusClosed, TeamID: "team-support"}, nil)

	_, err := svc.SendText(ctx, "conv-1", "oi")
	assert.True(t, apperrors.IsInvalidTransitionError(err))
	m.gatewayClient.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendText_DisconnectedInstanceRejected(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
	ctx := agentContext(t, m, agent)

	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
		Return(&model.Conversation{ConversationID: "conv-1", ContactID: "contact-1", InstanceName: "attendance-main", Status: model.StatusInProgress, AssignedAgentID: "agent-1"}, nil)
	m.instanceRepo.On("FindByName", mock.Anything, "attendance-main").
		Return(&model.GatewayInstance{InstanceName: "attendance-main", ConnectionStatus: model.InstanceDisconnected}, nil)

	_, err := svc.SendText(ctx, "conv-1", "oi")
	assert.True(t, apperrors.IsGatewayError(err))
}

func TestSendText_HiddenConversationForbidden(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", TeamIDs: []string{"team-sales"}})
	ctx := agentContext(t, m, agent)

	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
		Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusInProgress, AssignedAgentID: "agent-9", TeamID: "team-support"}, nil)

	_, err := svc.SendText(ctx, "conv-1", "oi")
	assert.True(t, apperrors.IsForbiddenError(err))
}

func TestClose_ActiveChatbotStartsRatingRound(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
	ctx := agentContext(t, m, agent)

	conv := model.NewConversation(&model.Conversation{
		ConversationID:  "conv-1",
		ContactID:       "contact-1",
		InstanceName:    "attendance-main",
		Status:          model.StatusInProgress,
		AssignedAgentID: "agent-1",
	})
	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").Return(conv, nil)
	m.botConfigRepo.On("GetOrCreate", mock.Anything).Return(model.DefaultChatbotConfig(), nil)
	m.contactRepo.On("FindByID", mock.Anything, "contact-1").
		Return(model.NewContact(&model.Contact{ID: "contact-1", RemoteJID: "5511999990000@s.whatsapp.net"}), nil)
	m.gatewayClient.On("SendText", mock.Anything, "attendance-main", "5511999990000", model.DefaultRatingRequestMessage).
		Return(&gateway.SendResult{MessageID: "wa-msg-9"}, nil)
	m.messageRepo.On("InsertIgnoreDuplicate", mock.Anything, mock.AnythingOfType("model.Message")).Return(true, nil)
	m.conversationRepo.On("UpdateIf", mock.Anything, "conv-1",
		storage.ConversationExpectation{Status: model.StatusInProgress}, mock.Anything).
		Run(func(args mock.Arguments) {
			fields := args.Get(3).(map[string]interface{})
			assert.Equal(t, string(model.StatusClosed), fields["status"])
			assert.Equal(t, string(model.BotStateRating), fields["bot_state"])
			assert.Equal(t, "resolved", fields["classification"])
			assert.Equal(t, "agent-1", fields["closed_by_id"])
		}).
		Return(nil)

	_, err := svc.Close(ctx, "conv-1", CloseRequest{Classification: "resolved"})
	require.NoError(t, err)

	m.messageRepo.AssertCalled(t, "InsertIgnoreDuplicate", mock.Anything, mock.MatchedBy(func(msg model.Message) bool {
		return msg.Content == model.DefaultRatingRequestMessage && msg.FromMe
	}))
}

func TestClose_RatingSendFailureStillCloses(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
	ctx := agentContext(t, m, agent)

	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
		Return(&model.Conversation{ConversationID: "conv-1", ContactID: "contact-1", InstanceName: "attendance-main", Status: model.StatusInProgress, AssignedAgentID: "agent-1"}, nil)
	m.botConfigRepo.On("GetOrCreate", mock.Anything).Return(model.DefaultChatbotConfig(), nil)
	m.contactRepo.On("FindByID", mock.Anything, "contact-1").
		Return(model.NewContact(&model.Contact{ID: "contact-1", PhoneNumber: "5511999990000"}), nil)
	m.gatewayClient.On("SendText", mock.Anything, "attendance-main", "5511999990000", model.DefaultRatingRequestMessage).
		Return(nil, errors.New("gateway unreachable"))
	m.conversationRepo.On("UpdateIf", mock.Anything, "conv-1",
		storage.ConversationExpectation{Status: model.StatusInProgress}, mock.Anything).
		Run(func(args mock.Arguments) {
			fields := args.Get(3).(map[string]interface{})
			assert.Equal(t, string(model.StatusClosed), fields["status"])
			assert.Equal(t, string(model.BotStateFinished), fields["bot_state"])
		}).
		Return(nil)

	_, err := svc.Close(ctx, "conv-1", CloseRequest{Classification: "resolved"})
	require.NoError(t, err)

	m.messageRepo.AssertNotCalled(t, "InsertIgnoreDuplicate", mock.Anything, mock.Anything)
}

func TestClose_AlreadyClosedRejected(t *testing.T) {
	svc, m := newTestService()
	agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
	ctx := agentContext(t, m, agent)

	m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
		Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusClosed}, nil)

	_, err := svc.Close(ctx, "conv-1", CloseRequest{})
	assert.True(t, apperrors.IsInvalidTransitionError(err))
}

func TestTransfer(t *testing.T) {
	t.Run("to a team returns the conversation to the queue", func(t *testing.T) {
		svc, m := newTestService()
		agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
		ctx := agentContext(t, m, agent)

		m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
			Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusInProgress, AssignedAgentID: "agent-1"}, nil)
		m.conversationRepo.On("UpdateIf", mock.Anything, "conv-1",
			storage.ConversationExpectation{Status: model.StatusInProgress}, mock.Anything).
			Run(func(args mock.Arguments) {
				fields := args.Get(3).(map[string]interface{})
				assert.Equal(t, string(model.StatusWaiting), fields["status"])
				assert.Equal(t, "team-sales", fields["team_id"])
				assert.Equal(t, "", fields["assigned_agent_id"])
			}).
			Return(nil)

		_, err := svc.Transfer(ctx, "conv-1", TransferRequest{TargetTeamID: "team-sales"})
		require.NoError(t, err)
	})

	t.Run("to an agent keeps it in progress", func(t *testing.T) {
		svc, m := newTestService()
		agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
		ctx := agentContext(t, m, agent)

		m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
			Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusInProgress, AssignedAgentID: "agent-1"}, nil)
		m.conversationRepo.On("UpdateIf", mock.Anything, "conv-1", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				fields := args.Get(3).(map[string]interface{})
				assert.Equal(t, string(model.StatusInProgress), fields["status"])
				assert.Equal(t, "agent-2", fields["assigned_agent_id"])
			}).
			Return(nil)

		_, err := svc.Transfer(ctx, "conv-1", TransferRequest{TargetTeamID: "team-sales", TargetAgentID: "agent-2"})
		require.NoError(t, err)
	})

	t.Run("closed conversations cannot be transferred", func(t *testing.T) {
		svc, m := newTestService()
		agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
		ctx := agentContext(t, m, agent)

		m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
			Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusClosed}, nil)

		_, err := svc.Transfer(ctx, "conv-1", TransferRequest{TargetTeamID: "team-sales"})
		assert.True(t, apperrors.IsInvalidTransitionError(err))
	})
}

func TestReopen(t *testing.T) {
	t.Run("closed conversation comes back assigned to the caller", func(t *testing.T) {
		svc, m := newTestService()
		agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
		ctx := agentContext(t, m, agent)

		m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
			Return(&model.Conversation{ConversationID: "conv-1", ContactID: "contact-1", Status: model.StatusClosed}, nil)
		m.conversationRepo.On("FindActiveByContactID", mock.Anything, "contact-1").Return(nil, apperrors.ErrNotFound)
		m.conversationRepo.On("UpdateIf", mock.Anything, "conv-1",
			storage.ConversationExpectation{Status: model.StatusClosed}, mock.Anything).
			Run(func(args mock.Arguments) {
				fields := args.Get(3).(map[string]interface{})
				assert.Equal(t, string(model.StatusInProgress), fields["status"])
				assert.Equal(t, "agent-1", fields["assigned_agent_id"])
				assert.Equal(t, string(model.BotStateWithAgent), fields["bot_state"])
				assert.Nil(t, fields["closed_at"])
			}).
			Return(nil)

		_, err := svc.Reopen(ctx, "conv-1")
		require.NoError(t, err)
	})

	t.Run("rejected while the contact has another active conversation", func(t *testing.T) {
		svc, m := newTestService()
		agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
		ctx := agentContext(t, m, agent)

		m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
			Return(&model.Conversation{ConversationID: "conv-1", ContactID: "contact-1", Status: model.StatusClosed}, nil)
		m.conversationRepo.On("FindActiveByContactID", mock.Anything, "contact-1").
			Return(&model.Conversation{ConversationID: "conv-2", ContactID: "contact-1", Status: model.StatusWaiting}, nil)

		_, err := svc.Reopen(ctx, "conv-1")
		assert.True(t, apperrors.IsConflictError(err))
		m.conversationRepo.AssertNotCalled(t, "UpdateIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("only closed conversations can be reopened", func(t *testing.T) {
		svc, m := newTestService()
		agent := model.NewAgentModel(&model.Agent{ID: "agent-1", Superuser: true})
		ctx := agentContext(t, m, agent)

		m.conversationRepo.On("FindByConversationID", mock.Anything, "conv-1").
			Return(&model.Conversation{ConversationID: "conv-1", Status: model.StatusInProgress, AssignedAgentID: "agent-1"}, nil)

		_, err := svc.Reopen(ctx, "conv-1")
		assert.True(t, apperrors.IsInvalidTransitionError(err))
	})
}
