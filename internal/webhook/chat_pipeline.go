package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/intent"
	"github.com/lueurxax/page-engage-bot/internal/messenger"
	"github.com/lueurxax/page-engage-bot/internal/observability"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// ChatStore is the slice of the conversation store the chat pipeline uses.
type ChatStore interface {
	GetChatByPSID(ctx context.Context, psid string) (*db.Chat, error)
	UpsertChat(ctx context.Context, pageID, psid, userName, phoneNumber, lastMessage string) (*db.Chat, error)
	AppendChatMessage(ctx context.Context, pageID, psid, role, text string) (*db.ChatMessage, error)
	GetChatHistory(ctx context.Context, psid string, limit int) ([]db.ChatMessage, error)
}

// ChatGateway is the messaging surface the chat pipeline drives.
type ChatGateway interface {
	FindConversation(ctx context.Context, psid, pageID string) (string, error)
	FetchHistory(ctx context.Context, conversationID string, limit int) ([]messenger.Message, error)
	SendText(ctx context.Context, psid, text string) (string, error)
}

// ChatPipeline handles one inbound Messenger message: capture lead data,
// persist, build the bounded context window, generate, persist and send.
type ChatPipeline struct {
	store        ChatStore
	gateway      ChatGateway
	classifier   intent.Client
	pageID       string
	historyLimit int
	logger       *zerolog.Logger
}

func NewChatPipeline(store ChatStore, gateway ChatGateway, classifier intent.Client, pageID string, historyLimit int, logger *zerolog.Logger) *ChatPipeline {
	if historyLimit < 1 {
		historyLimit = defaultHistoryLimit
	}

	return &ChatPipeline{
		store:        store,
		gateway:      gateway,
		classifier:   classifier,
		pageID:       pageID,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

const defaultHistoryLimit = 25

func (p *ChatPipeline) Process(ctx context.Context, psid, text string) error {
	if text == "" {
		return errors.New("empty message text")
	}

	logger := p.logger.With().Str("psid", psid).Logger()

	phone := ExtractPhone(text)
	if phone != "" {
		logger.Info().Str("phone", phone).Msg("phone number captured")
	}

	// Persist the inbound message, then the thread. The upsert never
	// clobbers a stored name or phone with empty data.
	if _, err := p.store.AppendChatMessage(ctx, p.pageID, psid, db.RoleUser, text); err != nil {
		return fmt.Errorf("persist inbound message: %w", err)
	}

	observability.ChatMessages.WithLabelValues(db.RoleUser).Inc()

	chat, err := p.store.UpsertChat(ctx, p.pageID, psid, "", phone, text)
	if err != nil {
		return fmt.Errorf("upsert chat thread: %w", err)
	}

	contextMessages, greet := p.buildContext(ctx, &logger, psid)
	firstName := intent.FirstName(chat.UserName)

	reply := p.classifier.GenerateChatReply(ctx, intent.ChatReplyRequest{
		Context:    contextMessages,
		LatestText: text,
		Greet:      greet,
		FirstName:  firstName,
	})

	// Local history records intent to send; delivery failure below doesn't
	// roll it back.
	if _, err := p.store.AppendChatMessage(ctx, p.pageID, psid, db.RoleAgent, reply); err != nil {
		return fmt.Errorf("persist reply: %w", err)
	}

	observability.ChatMessages.WithLabelValues(db.RoleAgent).Inc()

	if _, err := p.gateway.SendText(ctx, psid, reply); err != nil {
		logger.Error().Err(err).Msg("failed to deliver chat reply")
		observability.DMsSent.WithLabelValues("error").Inc()

		return nil
	}

	observability.DMsSent.WithLabelValues("ok").Inc()
	logger.Info().Bool("greet", greet).Msg("chat reply sent")

	return nil
}

// buildContext loads the most recent local history (excluding the inbound
// message just appended) in chronological order, and computes the greet
// flag: greet iff no prior agent message exists. A new thread with a
// resolvable remote conversation gets its context seeded from the platform's
// history instead; when even that fails the pipeline degrades to an empty
// context and still replies.
func (p *ChatPipeline) buildContext(ctx context.Context, logger *zerolog.Logger, psid string) ([]intent.Message, bool) {
	history, err := p.store.GetChatHistory(ctx, psid, p.historyLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("history load failed, replying without context")

		return nil, true
	}

	// history is most-recent-first and includes the inbound message.
	if len(history) <= 1 {
		if remote := p.remoteContext(ctx, logger, psid); remote != nil {
			return remote, !hasAgentMessage(remote)
		}

		return nil, true
	}

	greet := true
	messages := make([]intent.Message, 0, len(history)-1)

	for i := len(history) - 1; i >= 1; i-- {
		m := history[i]
		if m.Role == db.RoleAgent {
			greet = false
		}

		messages = append(messages, intent.Message{Role: m.Role, Text: m.Text})
	}

	return messages, greet
}

// remoteContext backfills a fresh thread from the platform's conversation
// history. Returns nil when the conversation can't be resolved or fetched.
func (p *ChatPipeline) remoteContext(ctx context.Context, logger *zerolog.Logger, psid string) []intent.Message {
	conversationID, err := p.gateway.FindConversation(ctx, psid, p.pageID)
	if err != nil || conversationID == "" {
		logger.Warn().Err(err).Msg("no conversation found, degrading to direct reply")

		return nil
	}

	remote, err := p.gateway.FetchHistory(ctx, conversationID, p.historyLimit)
	if err != nil {
		logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("remote history fetch failed")

		return nil
	}

	// Remote history is most-recent-first; replay oldest first.
	messages := make([]intent.Message, 0, len(remote))
	for i := len(remote) - 1; i >= 0; i-- {
		messages = append(messages, intent.Message{Role: remote[i].Role, Text: remote[i].Text})
	}

	logger.Info().Int("messages", len(messages)).Msg("context seeded from platform history")

	return messages
}

func hasAgentMessage(messages []intent.Message) bool {
	for _, m := range messages {
		if m.Role == db.RoleAgent {
			return true
		}
	}

	return false
}
