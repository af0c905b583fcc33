package metaapi

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"
)

// Conversation is one entry of a conversation listing.
type Conversation struct {
	ID           string
	UpdatedTime  string
	Participants []Participant
}

type Participant struct {
	ID   string
	Name string
}

// RawMessage is one fetched conversation message, untagged by role; the
// gateway maps sender id to role.
type RawMessage struct {
	Text        string
	FromID      string
	CreatedTime time.Time
}

func parseConversations(body []byte) []Conversation {
	items := gjson.GetBytes(body, "data").Array()
	conversations := make([]Conversation, 0, len(items))

	for _, item := range items {
		conv := Conversation{
			ID:          item.Get("id").String(),
			UpdatedTime: item.Get("updated_time").String(),
		}

		for _, p := range item.Get("participants.data").Array() {
			conv.Participants = append(conv.Participants, Participant{
				ID:   p.Get("id").String(),
				Name: p.Get("name").String(),
			})
		}

		conversations = append(conversations, conv)
	}

	return conversations
}

func parseMessages(body []byte) []RawMessage {
	items := gjson.GetBytes(body, "data").Array()
	messages := make([]RawMessage, 0, len(items))

	for _, item := range items {
		msg := RawMessage{
			Text:   item.Get("message").String(),
			FromID: item.Get("from.id").String(),
		}

		// Graph timestamps look like 2024-05-02T18:21:07+0000; dateparse
		// copes with the non-RFC3339 zone suffix.
		if raw := item.Get("created_time").String(); raw != "" {
			if ts, err := dateparse.ParseAny(raw); err == nil {
				msg.CreatedTime = ts
			}
		}

		messages = append(messages, msg)
	}

	return messages
}
