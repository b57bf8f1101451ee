package usecase

import (
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

// Visible decides whether an agent may see a conversation. Pure predicate;
// the listing path applies it after loading a filtered page.
//
// Superusers see everything and the assigned agent always sees their own
// conversations. Otherwise visibility follows queue position: waiting
// conversations are open to the target team (or to everyone while no team is
// set), in-progress conversations belong to their assignee, and closed
// conversations stay readable by the team that handled them.
func Visible(conv model.Conversation, agent model.Agent) bool {
	if agent.Superuser {
		return true
	}
	if conv.AssignedAgentID != "" && conv.AssignedAgentID == agent.ID {
		return true
	}

	switch conv.Status {
	case model.StatusWaiting:
		return conv.TeamID == "" || agent.MemberOf(conv.TeamID)
	case model.StatusInProgress:
		return false
	case model.StatusClosed:
		return agent.MemberOf(conv.TeamID)
	}
	return false
}

// FilterVisible returns the subset of conversations the agent may see,
// preserving order.
func FilterVisible(convs []model.Conversation, agent model.Agent) []model.Conversation {
	visible := make([]model.Conversation, 0, len(convs))
	for _, conv := range convs {
		if Visible(conv, agent) {
			visible = append(visible, conv)
		}
	}
	return visible
}
