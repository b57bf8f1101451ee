package usecase

import (
	"strconv"
	"strings"
	"time"

	"gitlab.com/miqsuite/api/wa-attendance-engine/internal/model"
)

// Transition is the computed outcome of feeding one inbound text to the
// chatbot. Persistence and the outbound send are the caller's job.
type Transition struct {
	Next         model.BotState
	Reply        string // empty when the bot stays silent
	AssignTeamID string
	Rating       int
	StateChanged bool
	RatingSet    bool
}

// Advance runs the chatbot transition table for one inbound text message.
// Pure function: no I/O, no clock reads besides the now argument.
func Advance(state model.BotState, text string, cfg *model.ChatbotConfig, teams []model.Team, now time.Time) Transition {
	input := strings.TrimSpace(text)

	switch state {
	case model.BotStateWelcome:
		hours, err := cfg.Hours()
		if err == nil && !hours.Open(now) {
			// Outside attendance hours the bot answers but does not advance.
			return Transition{Next: state, Reply: cfg.OfflineMessage}
		}
		return Transition{
			Next:         model.BotStateMenu,
			Reply:        cfg.WelcomeMessage + "\n\n" + renderMenu(cfg, teams),
			StateChanged: true,
		}

	case model.BotStateMenu:
		for _, opt := range menuEntries(cfg, teams) {
			if strings.EqualFold(opt.Option, input) {
				return Transition{
					Next:         model.BotStateWaitingAgent,
					Reply:        cfg.QueueMessage,
					AssignTeamID: opt.TeamID,
					StateChanged: true,
				}
			}
		}
		return Transition{
			Next:  state,
			Reply: cfg.InvalidOptionMessage + "\n\n" + renderMenu(cfg, teams),
		}

	case model.BotStateRating:
		rating, err := strconv.Atoi(input)
		if err != nil || rating < 1 || rating > 10 {
			return Transition{Next: state, Reply: cfg.RatingRequestMessage}
		}
		return Transition{
			Next:         model.BotStateFinished,
			Reply:        cfg.RatingThanksMessage,
			Rating:       rating,
			StateChanged: true,
			RatingSet:    true,
		}
	}

	// waiting_agent, with_agent, finished: a human owns the conversation.
	return Transition{Next: state}
}

// menuEntries returns the configured options, or one synthesized option per
// active team when none are configured.
func menuEntries(cfg *model.ChatbotConfig, teams []model.Team) []model.MenuOption {
	opts, err := cfg.Options()
	if err == nil && len(opts) > 0 {
		return opts
	}
	synthesized := make([]model.MenuOption, 0, len(teams))
	for _, team := range teams {
		if !team.IsActive {
			continue
		}
		synthesized = append(synthesized, model.MenuOption{
			Option: strconv.Itoa(len(synthesized) + 1),
			Text:   team.Name,
			TeamID: team.ID,
		})
	}
	return synthesized
}

// renderMenu formats the menu header plus one line per selectable option.
func renderMenu(cfg *model.ChatbotConfig, teams []model.Team) string {
	var b strings.Builder
	b.WriteString(cfg.MenuMessage)
	for _, opt := range menuEntries(cfg, teams) {
		b.WriteString("\n")
		b.WriteString(opt.Option)
		b.WriteString(" - ")
		b.WriteString(opt.Text)
	}
	return b.String()
}
