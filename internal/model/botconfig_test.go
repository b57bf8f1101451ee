package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestChatbotConfigOptions(t *testing.T) {
	cfg := DefaultChatbotConfig()

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Empty(t, opts)

	cfg.MenuOptions = datatypes.JSON([]byte(`[{"option":"1","text":"Suporte Técnico","team_id":"team-1"},{"option":"2","text":"Comercial","team_id":"team-2"}]`))
	opts, err = cfg.Options()
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "1", opts[0].Option)
	assert.Equal(t, "Suporte Técnico", opts[0].Text)
	assert.Equal(t, "team-2", opts[1].TeamID)

	cfg.MenuOptions = datatypes.JSON([]byte(`{"broken":`))
	_, err = cfg.Options()
	assert.Error(t, err)
}

func TestBusinessHoursOpen(t *testing.T) {
	// 2026-08-26 is a Wednesday
	wednesdayMorning := time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC)
	wednesdayNight := time.Date(2026, 8, 26, 22, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	t.Run("empty hours always open", func(t *testing.T) {
		var h BusinessHours
		assert.True(t, h.Open(wednesdayNight))
	})

	h := BusinessHours{
		"wednesday": {Start: "08:00", End: "18:00"},
	}

	t.Run("inside window", func(t *testing.T) {
		assert.True(t, h.Open(wednesdayMorning))
	})

	t.Run("outside window same day", func(t *testing.T) {
		assert.False(t, h.Open(wednesdayNight))
	})

	t.Run("day without entry is closed", func(t *testing.T) {
		assert.False(t, h.Open(sunday))
	})

	t.Run("window boundaries", func(t *testing.T) {
		assert.True(t, h.Open(time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)))
		assert.False(t, h.Open(time.Date(2026, 8, 26, 18, 0, 0, 0, time.UTC)))
	})

	t.Run("unparsable window is closed", func(t *testing.T) {
		bad := BusinessHours{"wednesday": {Start: "eight", End: "18:00"}}
		assert.False(t, bad.Open(wednesdayMorning))
	})
}

func TestContactDisplayName(t *testing.T) {
	c := &Contact{PhoneNumber: "5511988887777"}
	assert.Equal(t, "5511988887777", c.DisplayName())

	c.PushName = "Ana"
	assert.Equal(t, "Ana", c.DisplayName())

	c.CustomName = "Ana (Cliente VIP)"
	assert.Equal(t, "Ana (Cliente VIP)", c.DisplayName())
}
