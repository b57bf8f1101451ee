package usecase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

func TestUpdateChatbotConfig(t *testing.T) {
	t.Run("only touched fields are written", func(t *testing.T) {
		svc, m := newTestService()
		agent := &model.Agent{ID: "agent-1", IsActive: true, Superuser: true}
		ctx := agentContext(t, m, agent)

		welcome := "Bem-vindo!"
		active := false
		m.botConfigRepo.On("Update", mock.Anything, mock.MatchedBy(func(fields map[string]interface{}) bool {
			_, touchedMenu := fields["menu_message"]
			return fields["welcome_message"] == welcome && fields["is_active"] == false && !touchedMenu
		})).Return(model.DefaultChatbotConfig(), nil)

		_, err := svc.UpdateChatbotConfig(ctx, ChatbotConfigUpdate{
			WelcomeMessage: &welcome,
			IsActive:       &active,
		})
		require.NoError(t, err)
		m.botConfigRepo.AssertExpectations(t)
	})

	t.Run("menu options are stored as json", func(t *testing.T) {
		svc, m := newTestService()
		agent := &model.Agent{ID: "agent-1", IsActive: true, Superuser: true}
		ctx := agentContext(t, m, agent)

		m.botConfigRepo.On("Update", mock.Anything, mock.MatchedBy(func(fields map[string]interface{}) bool {
			raw, ok := fields["menu_options"].([]byte)
			if !ok {
				return false
			}
			var opts []model.MenuOption
			return json.Unmarshal(raw, &opts) == nil && len(opts) == 1 && opts[0].TeamID == "team-support"
		})).Return(model.DefaultChatbotConfig(), nil)

		_, err := svc.UpdateChatbotConfig(ctx, ChatbotConfigUpdate{
			MenuOptions: []model.MenuOption{{Option: "1", Text: "Suporte", TeamID: "team-support"}},
		})
		require.NoError(t, err)
	})

	t.Run("menu option without a code is rejected", func(t *testing.T) {
		svc, m := newTestService()
		agent := &model.Agent{ID: "agent-1", IsActive: true, Superuser: true}
		ctx := agentContext(t, m, agent)

		_, err := svc.UpdateChatbotConfig(ctx, ChatbotConfigUpdate{
			MenuOptions: []model.MenuOption{{Text: "Suporte", TeamID: "team-support"}},
		})
		assert.True(t, apperrors.IsValidationError(err))
		m.botConfigRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCreateQuickReply(t *testing.T) {
	svc, m := newTestService()
	agent := &model.Agent{ID: "agent-1", IsActive: true, TeamIDs: []string{"team-support"}}
	ctx := agentContext(t, m, agent)

	m.quickReplyRepo.On("Save", mock.Anything, mock.AnythingOfType("model.QuickReply")).Return(nil)

	reply, err := svc.CreateQuickReply(ctx, model.QuickReply{
		Title:   "Saudação",
		Content: "Olá, em que posso ajudar?",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, "agent-1", reply.CreatedByID)
	assert.True(t, reply.IsActive)
}

func TestCreateQuickReply_MissingContentRejected(t *testing.T) {
	svc, m := newTestService()
	agent := &model.Agent{ID: "agent-1", IsActive: true}
	ctx := agentContext(t, m, agent)

	_, err := svc.CreateQuickReply(ctx, model.QuickReply{Title: "Saudação"})
	require.Error(t, err)
	m.quickReplyRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestListQuickReplies_ScopedToAgentTeams(t *testing.T) {
	svc, m := newTestService()
	agent := &model.Agent{ID: "agent-1", IsActive: true, TeamIDs: []string{"team-support", "team-sales"}}
	ctx := agentContext(t, m, agent)

	m.quickReplyRepo.On("List", mock.Anything, []string{"team-support", "team-sales"}).
		Return([]model.QuickReply{{ID: "qr-1", Title: "Saudação"}}, nil)

	replies, err := svc.ListQuickReplies(ctx)
	require.NoError(t, err)
	assert.Len(t, replies, 1)
	m.quickReplyRepo.AssertExpectations(t)
}

func TestCreateClassification(t *testing.T) {
	svc, m := newTestService()
	agent := &model.Agent{ID: "agent-1", IsActive: true, Superuser: true}
	ctx := agentContext(t, m, agent)

	m.classificationRepo.On("Save", mock.Anything, mock.AnythingOfType("model.Classification")).Return(nil)

	created, err := svc.CreateClassification(ctx, model.Classification{Name: "Dúvida"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
}
