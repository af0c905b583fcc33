// Package intent wraps the LLM behind a fixed prompt contract: comment
// classification into {positive, negative, interested_in_services, other}
// with an optional DM draft, and chat reply generation over a bounded
// conversation context.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/config"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// Verdict is the structured result of comment classification.
type Verdict struct {
	Intent     string  `json:"intent"`
	DMMessage  string  `json:"dm_message"`
	Confidence float32 `json:"confidence"`
}

// Message is one turn of conversational context, oldest first when passed to
// GenerateChatReply.
type Message struct {
	Role string
	Text string
}

// ChatReplyRequest carries everything the chat generation prompt needs.
type ChatReplyRequest struct {
	Context    []Message
	LatestText string
	Greet      bool
	FirstName  string
}

type Client interface {
	// ClassifyComment analyzes a page comment. On failure it returns
	// DefaultVerdict alongside the error, so callers always have a usable
	// verdict.
	ClassifyComment(ctx context.Context, message, userName string) (*Verdict, error)

	// GenerateChatReply produces the agent's next chat message. Never
	// returns empty text: any provider or parse failure falls back to
	// FallbackChatReply internally.
	GenerateChatReply(ctx context.Context, req ChatReplyRequest) string
}

const llmAPIKeyMock = "mock"

func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == llmAPIKeyMock {
		return &mockClient{}
	}

	return NewOpenAI(cfg, logger)
}

// DefaultVerdict is the degraded classification used when the model call or
// the parse of its output fails: neutral intent, no DM, zero confidence.
func DefaultVerdict() *Verdict {
	return &Verdict{Intent: db.IntentOther, DMMessage: "", Confidence: 0}
}

// FallbackChatReply is the canned greet-aware reply used when generation
// fails. It asks the user to clarify their need or share a phone number.
func FallbackChatReply(greet bool, firstName string) string {
	base := "could you tell me a bit more about what you need help with? You can also share your number and I'll have an expert reach out 😊"
	if greet && firstName != "" {
		return fmt.Sprintf("Hey %s, %s", firstName, base)
	}

	return "Sure, " + base
}

// FirstName derives the greeting name from a stored display name.
func FirstName(userName string) string {
	fields := strings.Fields(strings.TrimSpace(userName))
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

type mockClient struct{}

var mockInterestMarkers = []string{"help", "price", "charge", "cost", "assignment", "essay", "tutoring", "interested", "service"}

func (c *mockClient) ClassifyComment(_ context.Context, message, userName string) (*Verdict, error) {
	lowered := strings.ToLower(message)
	for _, marker := range mockInterestMarkers {
		if strings.Contains(lowered, marker) {
			return &Verdict{
				Intent:     db.IntentInterested,
				DMMessage:  fmt.Sprintf("Hey %s, happy to help! Want to tell me a bit more about what you need? 😊", FirstName(userName)),
				Confidence: 0.9,
			}, nil
		}
	}

	return &Verdict{Intent: db.IntentOther, Confidence: 0.5}, nil
}

func (c *mockClient) GenerateChatReply(_ context.Context, req ChatReplyRequest) string {
	if req.Greet && req.FirstName != "" {
		return fmt.Sprintf("Hey %s, thanks for reaching out! What do you need help with? 😊", req.FirstName)
	}

	return "Got it! What exactly do you need help with — an online class, exam, or assignment?"
}
