// Package moderation decides whether a comment should be removed and issues
// the platform deletion.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// Deleter issues the platform's comment deletion call.
type Deleter interface {
	DeleteComment(ctx context.Context, fullCommentID string) error
}

type Moderator struct {
	keywords []string
	deleter  Deleter
	logger   *zerolog.Logger
}

func New(harmfulKeywords []string, deleter Deleter, logger *zerolog.Logger) *Moderator {
	keywords := make([]string, 0, len(harmfulKeywords))

	for _, kw := range harmfulKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return &Moderator{
		keywords: keywords,
		deleter:  deleter,
		logger:   logger,
	}
}

// ShouldRemove removes comments only when the classifier labeled them
// negative (case-insensitive). A harmful-keyword match is appended to the
// reason as diagnostic metadata but never triggers removal on its own.
func (m *Moderator) ShouldRemove(message, intent string) (bool, string) {
	if !strings.EqualFold(intent, db.IntentNegative) {
		return false, ""
	}

	reason := "intent:negative"
	if keyword := m.detectKeyword(message); keyword != "" {
		reason = fmt.Sprintf("%s_keyword:%s", reason, keyword)
	}

	return true, reason
}

// DeleteComment removes the comment from the platform. A missing id is an
// immediate failure without a network call.
func (m *Moderator) DeleteComment(ctx context.Context, fullCommentID string) error {
	if fullCommentID == "" {
		return fmt.Errorf("delete comment: missing comment id")
	}

	m.logger.Info().Str("comment_id", fullCommentID).Msg("deleting comment via Graph API")

	if err := m.deleter.DeleteComment(ctx, fullCommentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return nil
}

func (m *Moderator) detectKeyword(message string) string {
	if message == "" {
		return ""
	}

	lowered := strings.ToLower(message)

	for _, keyword := range m.keywords {
		if strings.Contains(lowered, keyword) {
			return keyword
		}
	}

	return ""
}
