package model

import (
	"encoding/json"
)

// MessageKeyPayload identifies a message on the gateway side.
type MessageKeyPayload struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// MessageUpsertPayload is the data block of a messages.upsert event.
type MessageUpsertPayload struct {
	Key              MessageKeyPayload `json:"key" validate:"required"`
	PushName         string            `json:"pushName"`
	Message          json.RawMessage   `json:"message"`
	MessageTimestamp int64             `json:"messageTimestamp"`
}

// MessageUpdatePayload is the data block of a messages.update event,
// carrying the gateway's numeric ack code.
type MessageUpdatePayload struct {
	Key    MessageKeyPayload `json:"key" validate:"required"`
	Status int               `json:"status"`
}

// ConnectionUpdatePayload is the data block of a connection.update event.
type ConnectionUpdatePayload struct {
	State  string `json:"state"`
	Number string `json:"number"`
}

// QRCodeUpdatedPayload is the data block of a qrcode.updated event.
type QRCodeUpdatedPayload struct {
	QRCode struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
	} `json:"qrcode"`
}

// ContactUpsertPayload is one entry of a contacts.upsert event. The gateway
// sends either a single object or an array of them.
type ContactUpsertPayload struct {
	RemoteJID         string `json:"remoteJid"`
	ID                string `json:"id"`
	PushName          string `json:"pushName"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// JID returns whichever of the two JID fields the gateway populated.
func (p *ContactUpsertPayload) JID() string {
	if p.RemoteJID != "" {
		return p.RemoteJID
	}
	return p.ID
}

// DecodeContactsUpsert accepts both shapes of a contacts.upsert data block.
func DecodeContactsUpsert(raw json.RawMessage) ([]ContactUpsertPayload, error) {
	var many []ContactUpsertPayload
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one ContactUpsertPayload
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []ContactUpsertPayload{one}, nil
}

// MessageContent is the flattened result of decoding the gateway's
// tagged-union message body.
type MessageContent struct {
	Kind            string
	Text            string
	MediaURL        string
	MediaBase64     string
	Mimetype        string
	Filename        string
	QuotedMessageID string
	Recognized      bool
}

type mediaBody struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Mimetype string `json:"mimetype"`
	Base64   string `json:"base64"`
	FileName string `json:"fileName"`
}

type contextInfoBody struct {
	StanzaID string `json:"stanzaId"`
}

type messageBody struct {
	Conversation *string `json:"conversation"`
	ExtendedText *struct {
		Text        string           `json:"text"`
		ContextInfo *contextInfoBody `json:"contextInfo"`
	} `json:"extendedTextMessage"`
	Image    *mediaBody `json:"imageMessage"`
	Video    *mediaBody `json:"videoMessage"`
	Audio    *mediaBody `json:"audioMessage"`
	Document *mediaBody `json:"documentMessage"`
	Sticker  *mediaBody `json:"stickerMessage"`
}

// DecodeMessageContent flattens a gateway message body into a MessageContent.
// Exactly one branch of the union is honored, checked in a fixed order.
// Unrecognized bodies come back with Kind "unknown" and Recognized false so
// the message row can still be stored.
func DecodeMessageContent(raw json.RawMessage) MessageContent {
	if len(raw) == 0 {
		return MessageContent{Kind: MessageKindUnknown}
	}

	var body messageBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return MessageContent{Kind: MessageKindUnknown}
	}

	media := func(kind string, m *mediaBody, text string) MessageContent {
		c := MessageContent{
			Kind:       kind,
			Text:       text,
			MediaURL:   m.URL,
			Mimetype:   m.Mimetype,
			Filename:   m.FileName,
			Recognized: true,
		}
		// An embedded payload beats a remote URL when both are present.
		if m.Base64 != "" {
			c.MediaBase64 = m.Base64
			c.MediaURL = ""
		}
		return c
	}

	switch {
	case body.Conversation != nil:
		return MessageContent{Kind: MessageKindText, Text: *body.Conversation, Recognized: true}
	case body.ExtendedText != nil:
		c := MessageContent{Kind: MessageKindText, Text: body.ExtendedText.Text, Recognized: true}
		if body.ExtendedText.ContextInfo != nil {
			c.QuotedMessageID = body.ExtendedText.ContextInfo.StanzaID
		}
		return c
	case body.Image != nil:
		return media(MessageKindImage, body.Image, body.Image.Caption)
	case body.Video != nil:
		return media(MessageKindVideo, body.Video, body.Video.Caption)
	case body.Audio != nil:
		return media(MessageKindAudio, body.Audio, "")
	case body.Document != nil:
		return media(MessageKindDocument, body.Document, body.Document.FileName)
	case body.Sticker != nil:
		return media(MessageKindSticker, body.Sticker, "")
	}

	return MessageContent{Kind: MessageKindUnknown}
}
