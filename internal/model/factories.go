package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"gitlab.com/miqsuite/api/wa-attendance-engine/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// RandomJSONBMap generates JSON data from a map for testing.
func RandomJSONBMap(data map[string]interface{}) datatypes.JSON {
	bytes, _ := json.Marshal(data)
	return datatypes.JSON(bytes)
}

// RandomJID builds a plausible individual WhatsApp JID.
func RandomJID() string {
	return fmt.Sprintf("55%d@s.whatsapp.net", gofakeit.Number(11900000000, 11999999999))
}

// NewContact creates a Contact with fake data, applying an optional override.
func NewContact(override ...*Contact) *Contact {
	base := &Contact{
		ID:             gofakeit.UUID(),
		RemoteJID:      RandomJID(),
		PushName:       gofakeit.Name(),
		PhoneNumber:    gofakeit.Numerify("55###########"),
		FirstContactAt: utils.Now().Add(-time.Duration(gofakeit.Number(1, 200)) * time.Hour),
		LastContactAt:  utils.Now(),
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}
	base.PhoneNumber = utils.JIDToNumber(base.RemoteJID)

	if len(override) > 0 && override[0] != nil {
		ovr := override[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.RemoteJID != "" {
			base.RemoteJID = ovr.RemoteJID
			base.PhoneNumber = utils.JIDToNumber(ovr.RemoteJID)
		}
		if ovr.PushName != "" {
			base.PushName = ovr.PushName
		}
		if ovr.CustomName != "" {
			base.CustomName = ovr.CustomName
		}
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
	}
	return base
}

// NewConversation creates a Conversation with fake data, applying an
// optional override.
func NewConversation(override ...*Conversation) *Conversation {
	base := &Conversation{
		ConversationID: gofakeit.UUID(),
		Protocol:       fmt.Sprintf("ATD%s%04d", utils.Now().Format("20060102150405"), gofakeit.Number(0, 9999)),
		ContactID:      gofakeit.UUID(),
		InstanceName:   "main",
		Status:         StatusWaiting,
		BotState:       BotStateWelcome,
		LastMessageAt:  utils.Now(),
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}

	if len(override) > 0 && override[0] != nil {
		ovr := override[0]
		if ovr.ConversationID != "" {
			base.ConversationID = ovr.ConversationID
		}
		if ovr.Protocol != "" {
			base.Protocol = ovr.Protocol
		}
		if ovr.ContactID != "" {
			base.ContactID = ovr.ContactID
		}
		if ovr.InstanceName != "" {
			base.InstanceName = ovr.InstanceName
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.BotState != "" {
			base.BotState = ovr.BotState
		}
		if ovr.TeamID != "" {
			base.TeamID = ovr.TeamID
		}
		if ovr.AssignedAgentID != "" {
			base.AssignedAgentID = ovr.AssignedAgentID
		}
		if ovr.ClosedAt != nil {
			base.ClosedAt = ovr.ClosedAt
		}
	}
	return base
}

// NewMessage creates a Message with fake data, applying an optional override.
func NewMessage(override ...*Message) *Message {
	base := &Message{
		MessageID:      gofakeit.LetterN(22),
		ConversationID: gofakeit.UUID(),
		RemoteJID:      RandomJID(),
		FromMe:         false,
		Kind:           MessageKindText,
		Content:        gofakeit.Sentence(6),
		Status:         DeliveryReceived,
		Timestamp:      utils.Now(),
		CreatedAt:      utils.Now(),
		UpdatedAt:      utils.Now(),
	}

	if len(override) > 0 && override[0] != nil {
		ovr := override[0]
		if ovr.MessageID != "" {
			base.MessageID = ovr.MessageID
		}
		if ovr.ConversationID != "" {
			base.ConversationID = ovr.ConversationID
		}
		if ovr.RemoteJID != "" {
			base.RemoteJID = ovr.RemoteJID
		}
		if ovr.FromMe {
			base.FromMe = true
		}
		if ovr.Kind != "" {
			base.Kind = ovr.Kind
		}
		if ovr.Content != "" {
			base.Content = ovr.Content
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
	}
	return base
}

// NewAgentModel creates an Agent with fake data, applying an optional
// override.
func NewAgentModel(override ...*Agent) *Agent {
	base := &Agent{
		ID:        gofakeit.UUID(),
		Name:      gofakeit.Name(),
		Superuser: false,
		IsActive:  true,
		CreatedAt: utils.Now(),
	}

	if len(override) > 0 && override[0] != nil {
		ovr := override[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Superuser {
			base.Superuser = true
		}
		if len(ovr.TeamIDs) > 0 {
			base.TeamIDs = ovr.TeamIDs
		}
	}
	return base
}
