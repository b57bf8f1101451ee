package storage

import (
	"context"
	"time"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/observer"
	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// FindAgent loads one agent with its team memberships resolved from the
// agent_teams join table.
func (r *PostgresRepo) FindAgent(ctx context.Context, agentID string) (*model.Agent, error) {
	var agent model.Agent

	operation := func() error {
		if err := r.db.WithContext(ctx).Where("id = ?", agentID).First(&agent).Error; err != nil {
			return checkConstraintViolation(err)
		}
		var memberships []model.AgentTeam
		if err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&memberships).Error; err != nil {
			return checkConstraintViolation(err)
		}
		agent.TeamIDs = agent.TeamIDs[:0]
		for _, m := range memberships {
			agent.TeamIDs = append(agent.TeamIDs, m.TeamID)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "FindAgent Read", operation)
	observer.ObserveDbOperationDuration("read", "agent", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return &agent, nil
}

// ListTeams returns every active team, name-ordered.
func (r *PostgresRepo) ListTeams(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team

	operation := func() error {
		result := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&teams)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	readErr := retryableOperation(ctx, readPolicy, "ListTeams Read", operation)
	observer.ObserveDbOperationDuration("read", "team", time.Since(startTime), readErr)

	if readErr != nil {
		return nil, readErr
	}
	return teams, nil
}
