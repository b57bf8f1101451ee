package model

import (
	"time"
)

// Contact represents a WhatsApp counterpart known to the attendance engine.
// Contacts are keyed internally by a UUID and deduplicated by their remote JID.
type Contact struct {
	ID                string    `gorm:"column:id;primaryKey;type:text" json:"id"`
	RemoteJID         string    `gorm:"column:remote_jid;type:text;uniqueIndex:idx_contacts_remote_jid" json:"remote_jid" validate:"required"`
	PushName          string    `gorm:"column:push_name;type:text" json:"push_name"`
	CustomName        string    `gorm:"column:custom_name;type:text" json:"custom_name"`
	PhoneNumber       string    `gorm:"column:phone_number;type:text;index:idx_contacts_phone_number" json:"phone_number"`
	ProfilePictureURL string    `gorm:"column:profile_picture_url;type:text" json:"profile_picture_url"`
	FirstContactAt    time.Time `gorm:"column:first_contact_at" json:"first_contact_at"`
	LastContactAt     time.Time `gorm:"column:last_contact_at;index:idx_contacts_last_contact_at" json:"last_contact_at"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// DisplayName resolves the name shown to agents. A name set by an agent
// always wins over the device-reported push name.
func (c *Contact) DisplayName() string {
	if c.CustomName != "" {
		return c.CustomName
	}
	if c.PushName != "" {
		return c.PushName
	}
	return c.PhoneNumber
}

// ContactUpdateColumns lists the columns refreshed when a gateway event
// touches an existing contact. Agent-owned fields (custom_name) are excluded.
func ContactUpdateColumns() []string {
	return []string{"push_name", "profile_picture_url", "last_contact_at", "updated_at"}
}
