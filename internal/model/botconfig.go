package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Default chatbot texts, used when a fresh configuration row is created.
const (
	DefaultWelcomeMessage       = "Olá! Bem-vindo ao nosso atendimento. 👋"
	DefaultMenuMessage          = "Por favor, selecione uma opção:"
	DefaultInvalidOptionMessage = "Opção inválida. Por favor, escolha uma das opções disponíveis."
	DefaultQueueMessage         = "Você está na fila. Em breve um atendente irá te atender."
	DefaultRatingRequestMessage = "Por favor, avalie nosso atendimento de 1 a 10:"
	DefaultRatingThanksMessage  = "Obrigado pela avaliação! Até a próxima. 👋"
	DefaultOfflineMessage       = "No momento estamos fora do horário de atendimento."
)

// MenuOption is one selectable entry of the chatbot menu. Choosing it routes
// the conversation to the referenced team's queue.
type MenuOption struct {
	Option string `json:"option"`
	Text   string `json:"text"`
	TeamID string `json:"team_id,omitempty"`
}

// DayWindow is the attendance window for a single weekday, "15:04" formatted.
type DayWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusinessHours maps lowercase english weekday names to attendance windows.
// An empty map means the chatbot attends around the clock.
type BusinessHours map[string]DayWindow

// Open reports whether t falls inside the configured attendance window.
// Days without an entry, and windows that fail to parse, count as closed.
func (h BusinessHours) Open(t time.Time) bool {
	if len(h) == 0 {
		return true
	}
	day := map[time.Weekday]string{
		time.Monday:    "monday",
		time.Tuesday:   "tuesday",
		time.Wednesday: "wednesday",
		time.Thursday:  "thursday",
		time.Friday:    "friday",
		time.Saturday:  "saturday",
		time.Sunday:    "sunday",
	}[t.Weekday()]

	window, ok := h[day]
	if !ok {
		return false
	}
	start, err := time.Parse("15:04", window.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", window.End)
	if err != nil {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= start.Hour()*60+start.Minute() && minute < end.Hour()*60+end.Minute()
}

// ChatbotConfig holds the single-row configuration of the automatic
// attendance flow.
type ChatbotConfig struct {
	ID                   int64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	IsActive             bool           `gorm:"column:is_active;default:true" json:"is_active"`
	WelcomeMessage       string         `gorm:"column:welcome_message;type:text" json:"welcome_message"`
	MenuMessage          string         `gorm:"column:menu_message;type:text" json:"menu_message"`
	InvalidOptionMessage string         `gorm:"column:invalid_option_message;type:text" json:"invalid_option_message"`
	QueueMessage         string         `gorm:"column:queue_message;type:text" json:"queue_message"`
	RatingRequestMessage string         `gorm:"column:rating_request_message;type:text" json:"rating_request_message"`
	RatingThanksMessage  string         `gorm:"column:rating_thanks_message;type:text" json:"rating_thanks_message"`
	OfflineMessage       string         `gorm:"column:offline_message;type:text" json:"offline_message"`
	MenuOptions          datatypes.JSON `gorm:"column:menu_options;type:jsonb" json:"menu_options"`
	BusinessHours        datatypes.JSON `gorm:"column:business_hours;type:jsonb" json:"business_hours"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ChatbotConfig) TableName() string {
	return "chatbot_config"
}

// DefaultChatbotConfig returns the configuration written on first read when
// no row exists yet.
func DefaultChatbotConfig() *ChatbotConfig {
	return &ChatbotConfig{
		IsActive:             true,
		WelcomeMessage:       DefaultWelcomeMessage,
		MenuMessage:          DefaultMenuMessage,
		InvalidOptionMessage: DefaultInvalidOptionMessage,
		QueueMessage:         DefaultQueueMessage,
		RatingRequestMessage: DefaultRatingRequestMessage,
		RatingThanksMessage:  DefaultRatingThanksMessage,
		OfflineMessage:       DefaultOfflineMessage,
		MenuOptions:          datatypes.JSON([]byte("[]")),
		BusinessHours:        datatypes.JSON([]byte("{}")),
	}
}

// Options decodes the configured menu entries. An empty or null column
// yields an empty slice.
func (c *ChatbotConfig) Options() ([]MenuOption, error) {
	if len(c.MenuOptions) == 0 {
		return nil, nil
	}
	var opts []MenuOption
	if err := json.Unmarshal(c.MenuOptions, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Hours decodes the configured attendance windows.
func (c *ChatbotConfig) Hours() (BusinessHours, error) {
	if len(c.BusinessHours) == 0 {
		return nil, nil
	}
	var hours BusinessHours
	if err := json.Unmarshal(c.BusinessHours, &hours); err != nil {
		return nil, err
	}
	return hours, nil
}
