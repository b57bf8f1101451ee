package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/apperrors"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

func TestListContacts(t *testing.T) {
	svc, m := newTestService()
	agent := &model.Agent{ID: "agent-1", IsActive: true}
	ctx := agentContext(t, m, agent)

	m.contactRepo.On("List", mock.Anything, "maria", 20, 0).
		Return([]model.Contact{{ID: "contact-1", PushName: "Maria"}}, int64(1), nil)

	contacts, total, err := svc.ListContacts(ctx, "maria", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, contacts, 1)
}

func TestRenameContact(t *testing.T) {
	svc, m := newTestService()
	agent := &model.Agent{ID: "agent-1", IsActive: true}
	ctx := agentContext(t, m, agent)

	m.contactRepo.On("Update", mock.Anything, "contact-1", mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["custom_name"] == "Cliente VIP"
	})).Return(nil)
	m.contactRepo.On("FindByID", mock.Anything, "contact-1").
		Return(model.NewContact(&model.Contact{ID: "contact-1", PushName: "Maria", CustomName: "Cliente VIP"}), nil)

	contact, err := svc.RenameContact(ctx, "contact-1", "Cliente VIP")
	require.NoError(t, err)
	assert.Equal(t, "Cliente VIP", contact.CustomName)
}

func TestGetContact_MissingAgentHeader(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetContact(testContext(t), "contact-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}
