package model

import (
	"time"
)

// QuickReply is a canned message an agent can insert into a conversation.
// A quick reply with an empty TeamID is global.
type QuickReply struct {
	ID          string    `gorm:"column:id;primaryKey;type:text" json:"id"`
	Title       string    `gorm:"column:title;type:text" json:"title" validate:"required"`
	Content     string    `gorm:"column:content;type:text" json:"content" validate:"required"`
	Shortcut    string    `gorm:"column:shortcut;type:text" json:"shortcut"`
	TeamID      string    `gorm:"column:team_id;type:text;index:idx_quick_replies_team_id" json:"team_id"`
	CreatedByID string    `gorm:"column:created_by_id;type:text" json:"created_by_id"`
	IsActive    bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (QuickReply) TableName() string {
	return "quick_replies"
}

// Classification is a label applied to a conversation when it is closed.
type Classification struct {
	ID        string    `gorm:"column:id;primaryKey;type:text" json:"id"`
	Name      string    `gorm:"column:name;type:text;uniqueIndex:idx_classifications_name" json:"name" validate:"required"`
	Color     string    `gorm:"column:color;type:text;default:'#6B7280'" json:"color"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Classification) TableName() string {
	return "chat_classifications"
}
