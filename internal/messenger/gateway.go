// Package messenger resolves user conversations, fetches tagged history,
// and delivers outbound replies through the Graph API.
package messenger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/metaapi"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// Message is a conversation message tagged with its role: agent when the
// sender is the page itself, user otherwise.
type Message struct {
	Role        string
	Text        string
	FromID      string
	CreatedTime time.Time
}

// API is the Graph API surface the gateway needs.
type API interface {
	SendPrivateReply(ctx context.Context, pageID, commentID, text string) (string, error)
	SendMessage(ctx context.Context, psid, text string) (string, error)
	ConversationsByPSID(ctx context.Context, psid string) ([]metaapi.Conversation, error)
	ConversationsByPage(ctx context.Context, pageID string, limit int) ([]metaapi.Conversation, error)
	Messages(ctx context.Context, conversationID string, limit int) ([]metaapi.RawMessage, error)
	ValidateToken(ctx context.Context) error
}

type Gateway struct {
	api    API
	pageID string
	logger *zerolog.Logger
}

const pageConversationsLimit = 25

func New(api API, pageID string, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		api:    api,
		pageID: pageID,
		logger: logger,
	}
}

// FindConversation resolves the user's conversation id. Direct PSID lookup
// first; on any error or empty result, page through the page's recent
// conversations and match by participant id. Returns "" when unresolved.
func (g *Gateway) FindConversation(ctx context.Context, psid, pageID string) (string, error) {
	conversations, err := g.api.ConversationsByPSID(ctx, psid)
	if err != nil {
		g.logger.Warn().Err(err).Str("psid", psid).Msg("PSID conversations lookup failed, falling back to page listing")
	} else if len(conversations) > 0 {
		// Listing is most-recent-first.
		return conversations[0].ID, nil
	}

	conversations, err = g.api.ConversationsByPage(ctx, pageID, pageConversationsLimit)
	if err != nil {
		return "", fmt.Errorf("page conversations lookup: %w", err)
	}

	for _, conv := range conversations {
		for _, p := range conv.Participants {
			if p.ID == psid {
				return conv.ID, nil
			}
		}
	}

	return "", nil
}

// FetchHistory returns the conversation's recent messages with roles mapped
// from sender id, in the API's most-recent-first order.
func (g *Gateway) FetchHistory(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	raw, err := g.api.Messages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	messages := make([]Message, 0, len(raw))

	for _, m := range raw {
		role := db.RoleUser
		if m.FromID == g.pageID {
			role = db.RoleAgent
		}

		messages = append(messages, Message{
			Role:        role,
			Text:        m.Text,
			FromID:      m.FromID,
			CreatedTime: m.CreatedTime,
		})
	}

	return messages, nil
}

// SendText validates the access token, then delivers a chat message to the
// user. Callers treat failure as logged, not retried.
func (g *Gateway) SendText(ctx context.Context, psid, text string) (string, error) {
	if err := g.api.ValidateToken(ctx); err != nil {
		return "", fmt.Errorf("validate token: %w", err)
	}

	id, err := g.api.SendMessage(ctx, psid, text)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	return id, nil
}

// SendPrivateReply delivers a DM targeting a comment through the page's
// messages endpoint.
func (g *Gateway) SendPrivateReply(ctx context.Context, pageID, fullCommentID, text string) (string, error) {
	id, err := g.api.SendPrivateReply(ctx, pageID, fullCommentID, text)
	if err != nil {
		return "", fmt.Errorf("send private reply: %w", err)
	}

	return id, nil
}
