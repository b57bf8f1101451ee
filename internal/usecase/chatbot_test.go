package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

func testConfig(t *testing.T, menuOptions string) *model.ChatbotConfig {
	t.Helper()
	cfg := model.DefaultChatbotConfig()
	if menuOptions != "" {
		cfg.MenuOptions = datatypes.JSON([]byte(menuOptions))
	}
	return cfg
}

func TestAdvance_WelcomeSendsMenuAndAdvances(t *testing.T) {
	cfg := testConfig(t, `[{"option":"1","text":"Suporte","team_id":"team-support"}]`)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	tr := Advance(model.BotStateWelcome, "oi", cfg, nil, now)

	assert.Equal(t, model.BotStateMenu, tr.Next)
	assert.True(t, tr.StateChanged)
	assert.Contains(t, tr.Reply, cfg.WelcomeMessage)
	assert.Contains(t, tr.Reply, cfg.MenuMessage)
	assert.Contains(t, tr.Reply, "1 - Suporte")
	assert.Empty(t, tr.AssignTeamID)
}

func TestAdvance_WelcomeOutsideBusinessHours(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.BusinessHours = model.RandomJSONBMap(map[string]interface{}{
		"monday": map[string]interface{}{"start": "09:00", "end": "18:00"},
	})
	// A Sunday, no window configured for it.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Sunday, now.Weekday())

	tr := Advance(model.BotStateWelcome, "oi", cfg, nil, now)

	assert.Equal(t, model.BotStateWelcome, tr.Next)
	assert.False(t, tr.StateChanged)
	assert.Equal(t, cfg.OfflineMessage, tr.Reply)
}

func TestAdvance_MenuMatchRoutesToTeam(t *testing.T) {
	cfg := testConfig(t, `[{"option":"1","text":"Suporte","team_id":"team-support"},{"option":"2","text":"Comercial","team_id":"team-sales"}]`)

	tr := Advance(model.BotStateMenu, " 2 ", cfg, nil, time.Now())

	assert.Equal(t, model.BotStateWaitingAgent, tr.Next)
	assert.True(t, tr.StateChanged)
	assert.Equal(t, "team-sales", tr.AssignTeamID)
	assert.Equal(t, cfg.QueueMessage, tr.Reply)
}

func TestAdvance_MenuInvalidOptionReprompts(t *testing.T) {
	cfg := testConfig(t, `[{"option":"1","text":"Suporte","team_id":"team-support"}]`)

	tr := Advance(model.BotStateMenu, "99", cfg, nil, time.Now())

	assert.Equal(t, model.BotStateMenu, tr.Next)
	assert.False(t, tr.StateChanged)
	assert.Contains(t, tr.Reply, cfg.InvalidOptionMessage)
	assert.Contains(t, tr.Reply, "1 - Suporte")
	assert.Empty(t, tr.AssignTeamID)
}

func TestAdvance_MenuFallsBackToTeamRoster(t *testing.T) {
	cfg := testConfig(t, "")
	teams := []model.Team{
		{ID: "team-support", Name: "Suporte", IsActive: true},
		{ID: "team-retired", Name: "Desativado", IsActive: false},
		{ID: "team-sales", Name: "Comercial", IsActive: true},
	}

	tr := Advance(model.BotStateMenu, "2", cfg, teams, time.Now())

	// Inactive teams do not occupy an option slot.
	assert.Equal(t, model.BotStateWaitingAgent, tr.Next)
	assert.Equal(t, "team-sales", tr.AssignTeamID)
}

func TestAdvance_RatingBounds(t *testing.T) {
	cfg := testConfig(t, "")

	for _, input := range []string{"0", "11", "abc", ""} {
		tr := Advance(model.BotStateRating, input, cfg, nil, time.Now())
		assert.Equal(t, model.BotStateRating, tr.Next, "input %q", input)
		assert.False(t, tr.RatingSet, "input %q", input)
		assert.Equal(t, cfg.RatingRequestMessage, tr.Reply, "input %q", input)
	}

	tr := Advance(model.BotStateRating, "7", cfg, nil, time.Now())
	assert.Equal(t, model.BotStateFinished, tr.Next)
	assert.True(t, tr.StateChanged)
	assert.True(t, tr.RatingSet)
	assert.Equal(t, 7, tr.Rating)
	assert.Equal(t, cfg.RatingThanksMessage, tr.Reply)
}

func TestAdvance_HumanOwnedStatesStaySilent(t *testing.T) {
	cfg := testConfig(t, "")

	for _, state := range []model.BotState{model.BotStateWaitingAgent, model.BotStateWithAgent, model.BotStateFinished} {
		tr := Advance(state, "hello?", cfg, nil, time.Now())
		assert.Equal(t, state, tr.Next, "state %s", state)
		assert.Empty(t, tr.Reply, "state %s", state)
		assert.False(t, tr.StateChanged, "state %s", state)
	}
}
