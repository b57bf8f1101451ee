package model

import (
	"time"
)

// Team is an attendance queue target. Rows are projections synced from the
// surrounding ERP; the engine only reads them.
type Team struct {
	ID        string    `gorm:"column:id;primaryKey;type:text" json:"id"`
	Name      string    `gorm:"column:name;type:text" json:"name"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Team) TableName() string {
	return "teams"
}

// Agent is a human attendant, also a projection from the ERP user base.
// TeamIDs is loaded from the agent_teams join table, not a column.
type Agent struct {
	ID        string    `gorm:"column:id;primaryKey;type:text" json:"id"`
	Name      string    `gorm:"column:name;type:text" json:"name"`
	Superuser bool      `gorm:"column:superuser" json:"superuser"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	TeamIDs   []string  `gorm:"-" json:"team_ids"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Agent) TableName() string {
	return "agents"
}

// MemberOf reports whether the agent belongs to the given team.
func (a *Agent) MemberOf(teamID string) bool {
	for _, id := range a.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// AgentTeam is the membership join between agents and teams.
type AgentTeam struct {
	AgentID string `gorm:"column:agent_id;primaryKey;type:text" json:"agent_id"`
	TeamID  string `gorm:"column:team_id;primaryKey;type:text" json:"team_id"`
}

func (AgentTeam) TableName() string {
	return "agent_teams"
}
