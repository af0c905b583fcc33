package webhook

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/page-engage-bot/internal/config"
)

// recordingHandler captures routed events; safe under the dispatcher's
// concurrent fan-out.
type recordingHandler struct {
	mu      sync.Mutex
	added   []FeedChange
	removed []FeedChange
	chats   map[string][]string
	panicOn string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{chats: make(map[string][]string)}
}

func (h *recordingHandler) ProcessAdd(_ context.Context, change FeedChange, _ []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.panicOn != "" && change.CommentID == h.panicOn {
		panic("boom")
	}

	h.added = append(h.added, change)

	return nil
}

func (h *recordingHandler) ProcessRemove(_ context.Context, change FeedChange) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removed = append(h.removed, change)

	return nil
}

func (h *recordingHandler) Process(_ context.Context, psid, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.chats[psid] = append(h.chats[psid], text)

	return nil
}

func newTestDispatcher(h *recordingHandler) *Dispatcher {
	logger := zerolog.Nop()

	return NewDispatcher(&config.Config{PageID: "987654", WebhookMaxConcurrent: 4}, h, h, &logger)
}

func rawChange(t *testing.T, field string, value any) Change {
	t.Helper()

	raw, err := json.Marshal(value)
	require.NoError(t, err)

	return Change{Field: field, Value: raw}
}

func TestDispatcherRoutesEvents(t *testing.T) {
	h := newRecordingHandler()
	d := newTestDispatcher(h)

	payload := &Payload{
		Object: "page",
		Entry: []Entry{
			{
				ID: "987654",
				Changes: []Change{
					rawChange(t, "feed", FeedChange{Item: "comment", Verb: "add", Message: "hi", CommentID: "1_2", PostID: "9_1"}),
					rawChange(t, "feed", FeedChange{Item: "comment", Verb: "remove", CommentID: "1_3"}),
					rawChange(t, "feed", FeedChange{Item: "reaction", Verb: "add", ReactionType: "like"}),
					rawChange(t, "feed", FeedChange{Item: "post", Verb: "add", Message: "status update"}),
				},
			},
			{
				ID: "987654",
				Messaging: []MessagingEvent{
					{Sender: WebhookUser{ID: "psid-1"}, Message: struct {
						MID  string `json:"mid"`
						Text string `json:"text"`
					}{Text: "hello"}},
				},
			},
		},
	}

	d.Dispatch(context.Background(), payload)

	require.Len(t, h.added, 1)
	assert.Equal(t, "1_2", h.added[0].CommentID)
	require.Len(t, h.removed, 1)
	assert.Equal(t, "1_3", h.removed[0].CommentID)
	assert.Equal(t, map[string][]string{"psid-1": {"hello"}}, h.chats)
}

func TestDispatcherFiltersMessagingEvents(t *testing.T) {
	h := newRecordingHandler()
	d := newTestDispatcher(h)

	makeMsg := func(sender, text string) MessagingEvent {
		return MessagingEvent{Sender: WebhookUser{ID: sender}, Message: struct {
			MID  string `json:"mid"`
			Text string `json:"text"`
		}{Text: text}}
	}

	d.Dispatch(context.Background(), &Payload{Entry: []Entry{{
		Messaging: []MessagingEvent{
			makeMsg("987654", "echo of our own send"),
			makeMsg("psid-1", ""),
			makeMsg("psid-2", "a real message"),
		},
	}}})

	assert.Equal(t, map[string][]string{"psid-2": {"a real message"}}, h.chats)
}

func TestDispatcherDropsCommentAddWithoutText(t *testing.T) {
	h := newRecordingHandler()
	d := newTestDispatcher(h)

	d.Dispatch(context.Background(), &Payload{Entry: []Entry{{
		Changes: []Change{
			rawChange(t, "feed", FeedChange{Item: "comment", Verb: "add", CommentID: "1_2"}),
		},
	}}})

	assert.Empty(t, h.added)
}

func TestDispatcherDropsMalformedChange(t *testing.T) {
	h := newRecordingHandler()
	d := newTestDispatcher(h)

	d.Dispatch(context.Background(), &Payload{Entry: []Entry{{
		Changes: []Change{{Field: "feed", Value: json.RawMessage(`"not an object"`)}},
	}}})

	assert.Empty(t, h.added)
	assert.Empty(t, h.removed)
}

func TestDispatcherIsolatesPanickingEvent(t *testing.T) {
	h := newRecordingHandler()
	h.panicOn = "1_666"
	d := newTestDispatcher(h)

	d.Dispatch(context.Background(), &Payload{Entry: []Entry{{
		Changes: []Change{
			rawChange(t, "feed", FeedChange{Item: "comment", Verb: "add", Message: "bad", CommentID: "1_666", PostID: "9_1"}),
			rawChange(t, "feed", FeedChange{Item: "comment", Verb: "add", Message: "fine", CommentID: "1_777", PostID: "9_1"}),
		},
	}}})

	require.Len(t, h.added, 1, "sibling event survives the panic")
	assert.Equal(t, "1_777", h.added[0].CommentID)
}
