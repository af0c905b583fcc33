package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/intent"
	"github.com/lueurxax/page-engage-bot/internal/observability"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

// CommentStore is the slice of the conversation store the comment pipeline
// mutates.
type CommentStore interface {
	GetCommentByID(ctx context.Context, commentID string) (*db.Comment, error)
	CreateComment(ctx context.Context, c *db.Comment) (*db.Comment, error)
	UpdateCommentIntent(ctx context.Context, commentID, intentLabel, dmMessage string) (*db.Comment, error)
	MarkDMSent(ctx context.Context, commentID, externalMessageID string) (*db.Comment, error)
	DeleteCommentByID(ctx context.Context, commentID string) (bool, error)
	LogDeletedComment(ctx context.Context, d *db.DeletedComment) (*db.DeletedComment, error)
}

// ReplySender delivers a private reply targeting a comment.
type ReplySender interface {
	SendPrivateReply(ctx context.Context, pageID, fullCommentID, text string) (string, error)
}

// Moderator decides on and executes comment removal.
type Moderator interface {
	ShouldRemove(message, intentLabel string) (bool, string)
	DeleteComment(ctx context.Context, fullCommentID string) error
}

// CommentPipeline drives one comment event to a terminal state:
// new → classified → {removed | replied | skipped}.
type CommentPipeline struct {
	store      CommentStore
	classifier intent.Client
	sender     ReplySender
	moderator  Moderator
	logger     *zerolog.Logger
}

func NewCommentPipeline(store CommentStore, classifier intent.Client, sender ReplySender, moderator Moderator, logger *zerolog.Logger) *CommentPipeline {
	return &CommentPipeline{
		store:      store,
		classifier: classifier,
		sender:     sender,
		moderator:  moderator,
		logger:     logger,
	}
}

// ProcessAdd handles a comment-added event end to end. raw is the original
// change payload, preserved verbatim for audit.
func (p *CommentPipeline) ProcessAdd(ctx context.Context, change FeedChange, raw []byte) error {
	commentID := TrailingID(change.CommentID)
	if commentID == "" {
		return errors.New("comment event without comment id")
	}

	logger := p.logger.With().Str("comment_id", commentID).Logger()

	// Dedup: the upstream may redeliver.
	existing, err := p.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}

	if existing != nil {
		logger.Info().Msg("comment already processed, skipping")
		observability.CommentsProcessed.WithLabelValues(observability.OutcomeDuplicate).Inc()

		return nil
	}

	createdTime := time.Now().UTC()
	if change.CreatedTime > 0 {
		createdTime = time.Unix(change.CreatedTime, 0).UTC()
	}

	if _, err := p.store.CreateComment(ctx, &db.Comment{
		CommentID:   commentID,
		PostID:      TrailingID(change.PostID),
		UserID:      change.From.ID,
		UserName:    change.From.Name,
		Message:     change.Message,
		CreatedTime: createdTime,
		RawJSON:     raw,
	}); err != nil {
		if errors.Is(err, db.ErrDuplicateComment) {
			// A redelivery raced the dedup check; the first writer wins.
			observability.CommentsProcessed.WithLabelValues(observability.OutcomeDuplicate).Inc()

			return nil
		}

		return fmt.Errorf("persist comment: %w", err)
	}

	verdict, err := p.classifier.ClassifyComment(ctx, change.Message, change.From.Name)
	if err != nil {
		// Degraded: verdict is already the neutral default.
		logger.Warn().Err(err).Msg("intent classification failed, continuing with default verdict")
	}

	// Hard business rule: reply text is stored only for intents that get a
	// DM, regardless of what the classifier drafted.
	dmMessage := ""
	if wantsDM(verdict.Intent) {
		dmMessage = verdict.DMMessage
	}

	if _, err := p.store.UpdateCommentIntent(ctx, commentID, verdict.Intent, dmMessage); err != nil {
		return fmt.Errorf("store verdict: %w", err)
	}

	logger.Info().Str("intent", verdict.Intent).Float32("confidence", verdict.Confidence).Msg("comment classified")

	if removed := p.moderateComment(ctx, &logger, change, commentID, verdict.Intent); removed {
		return nil
	}

	if dmMessage == "" {
		logger.Info().Str("intent", verdict.Intent).Msg("intent doesn't require a DM, skipping")
		observability.CommentsProcessed.WithLabelValues(observability.OutcomeSkipped).Inc()

		return nil
	}

	p.sendReply(ctx, &logger, change, commentID, dmMessage)

	return nil
}

// ProcessRemove handles a comment-removed event: the upstream already
// removed the comment, mirror the deletion locally.
func (p *CommentPipeline) ProcessRemove(ctx context.Context, change FeedChange) error {
	commentID := TrailingID(change.CommentID)
	if commentID == "" {
		p.logger.Warn().Msg("remove event without comment id, dropping")

		return nil
	}

	deleted, err := p.store.DeleteCommentByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment record: %w", err)
	}

	if deleted {
		p.logger.Info().Str("comment_id", commentID).Msg("comment record deleted")
	} else {
		p.logger.Warn().Str("comment_id", commentID).Msg("comment not found, may have already been deleted")
	}

	return nil
}

// moderateComment runs the removal gate. Returns true when the comment was
// removed (terminal); a failed platform deletion leaves the record intact
// and still ends processing without a reply.
func (p *CommentPipeline) moderateComment(ctx context.Context, logger *zerolog.Logger, change FeedChange, commentID, intentLabel string) bool {
	remove, reason := p.moderator.ShouldRemove(change.Message, intentLabel)
	if !remove {
		return false
	}

	if err := p.moderator.DeleteComment(ctx, change.CommentID); err != nil {
		logger.Error().Err(err).Msg("platform comment deletion failed, record kept")
		observability.CommentsProcessed.WithLabelValues(observability.OutcomeError).Inc()

		return true
	}

	// Audit entry first, then the hard delete.
	if _, err := p.store.LogDeletedComment(ctx, &db.DeletedComment{
		CommentID:     commentID,
		PostID:        TrailingID(change.PostID),
		UserID:        change.From.ID,
		UserName:      change.From.Name,
		Message:       change.Message,
		Intent:        intentLabel,
		RemovalReason: reason,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to write removal audit entry")
	}

	if _, err := p.store.DeleteCommentByID(ctx, commentID); err != nil {
		logger.Error().Err(err).Msg("failed to delete comment record after removal")
	}

	logger.Info().Str("reason", reason).Msg("comment removed by moderation")
	observability.CommentsRemoved.Inc()
	observability.CommentsProcessed.WithLabelValues(observability.OutcomeRemoved).Inc()

	return true
}

// sendReply dispatches the DM and marks the record on success. Failures are
// logged only; the record stays dm_sent=false for manual inspection via the
// pending query.
func (p *CommentPipeline) sendReply(ctx context.Context, logger *zerolog.Logger, change FeedChange, commentID, dmMessage string) {
	pageID := LeadingID(change.PostID)

	externalID, err := p.sender.SendPrivateReply(ctx, pageID, change.CommentID, dmMessage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to send DM")
		observability.DMsSent.WithLabelValues("error").Inc()
		observability.CommentsProcessed.WithLabelValues(observability.OutcomeError).Inc()

		return
	}

	if _, err := p.store.MarkDMSent(ctx, commentID, externalID); err != nil {
		logger.Error().Err(err).Msg("DM sent but marking the record failed")
	}

	logger.Info().Str("page_id", pageID).Msg("DM sent")
	observability.DMsSent.WithLabelValues("ok").Inc()
	observability.CommentsProcessed.WithLabelValues(observability.OutcomeReplied).Inc()
}

func wantsDM(intentLabel string) bool {
	return intentLabel == db.IntentPositive || intentLabel == db.IntentInterested
}
