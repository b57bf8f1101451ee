package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

func TestVisible(t *testing.T) {
	member := model.Agent{ID: "agent-1", TeamIDs: []string{"team-support"}}
	outsider := model.Agent{ID: "agent-2", TeamIDs: []string{"team-sales"}}
	noTeam := model.Agent{ID: "agent-3"}
	super := model.Agent{ID: "agent-root", Superuser: true}

	cases := []struct {
		name  string
		conv  model.Conversation
		agent model.Agent
		want  bool
	}{
		{"waiting unassigned no team visible to anyone", model.Conversation{Status: model.StatusWaiting}, noTeam, true},
		{"waiting targeted visible to team member", model.Conversation{Status: model.StatusWaiting, TeamID: "team-support"}, member, true},
		{"waiting targeted hidden from other teams", model.Conversation{Status: model.StatusWaiting, TeamID: "team-support"}, outsider, false},
		{"in progress visible only to assignee", model.Conversation{Status: model.StatusInProgress, TeamID: "team-support", AssignedAgentID: "agent-1"}, member, true},
		{"in progress hidden from teammates", model.Conversation{Status: model.StatusInProgress, TeamID: "team-support", AssignedAgentID: "agent-9"}, member, false},
		{"closed visible to handling team", model.Conversation{Status: model.StatusClosed, TeamID: "team-support"}, member, true},
		{"closed hidden from other teams", model.Conversation{Status: model.StatusClosed, TeamID: "team-support"}, outsider, false},
		{"assignee sees it regardless of status", model.Conversation{Status: model.StatusClosed, TeamID: "team-sales", AssignedAgentID: "agent-1"}, member, true},
		{"superuser sees everything", model.Conversation{Status: model.StatusInProgress, AssignedAgentID: "agent-9"}, super, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Visible(tc.conv, tc.agent))
		})
	}
}

func TestFilterVisible_PreservesOrder(t *testing.T) {
	agent := model.Agent{ID: "agent-1", TeamIDs: []string{"team-support"}}
	convs := []model.Conversation{
		{ConversationID: "c1", Status: model.StatusWaiting, TeamID: "team-support"},
		{ConversationID: "c2", Status: model.StatusInProgress, AssignedAgentID: "agent-9"},
		{ConversationID: "c3", Status: model.StatusWaiting},
	}

	visible := FilterVisible(convs, agent)

	assert.Len(t, visible, 2)
	assert.Equal(t, "c1", visible[0].ConversationID)
	assert.Equal(t, "c3", visible[1].ConversationID)
}
