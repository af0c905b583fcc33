package webhook

import "encoding/json"

// Payload is the envelope of one webhook delivery. A single delivery may
// carry multiple independent entries, each with feed changes and/or
// messaging events.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Changes   []Change         `json:"changes"`
	Messaging []MessagingEvent `json:"messaging"`
}

// Change keeps Value as raw bytes so the original payload can be stored as
// an opaque blob alongside the typed fields; upstream adds fields freely.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// FeedChange is the typed view of a feed-style change. Item and Verb are the
// routing discriminants.
type FeedChange struct {
	Item         string      `json:"item"`
	Verb         string      `json:"verb"`
	Message      string      `json:"message"`
	CommentID    string      `json:"comment_id"`
	PostID       string      `json:"post_id"`
	From         WebhookUser `json:"from"`
	CreatedTime  int64       `json:"created_time"`
	ReactionType string      `json:"reaction_type"`
}

type WebhookUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessagingEvent is one Messenger event of a delivery batch.
type MessagingEvent struct {
	Sender    WebhookUser `json:"sender"`
	Recipient WebhookUser `json:"recipient"`
	Message   struct {
		MID  string `json:"mid"`
		Text string `json:"text"`
	} `json:"message"`
}

// Feed change routing values.
const (
	itemComment  = "comment"
	itemReaction = "reaction"
	verbAdd      = "add"
	verbRemove   = "remove"
)
