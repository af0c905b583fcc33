// Package webhook contains the event processing core: the dispatcher that
// normalizes and routes incoming deliveries, and the comment and chat
// pipelines it drives.
package webhook

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/config"
	"github.com/lueurxax/page-engage-bot/internal/observability"
)

// commentHandler processes routed comment events.
type commentHandler interface {
	ProcessAdd(ctx context.Context, change FeedChange, raw []byte) error
	ProcessRemove(ctx context.Context, change FeedChange) error
}

// chatHandler processes routed direct-message events.
type chatHandler interface {
	Process(ctx context.Context, psid, text string) error
}

// Dispatcher fans the events of one delivery out to the pipelines. Events
// are isolated: a failure or panic in one never aborts its siblings. Events
// sharing a dedup key are serialized through a keyed mutex.
type Dispatcher struct {
	pageID   string
	comments commentHandler
	chats    chatHandler
	sem      chan struct{}
	keys     *keyedMutex
	logger   *zerolog.Logger
}

func NewDispatcher(cfg *config.Config, comments commentHandler, chats chatHandler, logger *zerolog.Logger) *Dispatcher {
	maxConcurrent := cfg.WebhookMaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Dispatcher{
		pageID:   cfg.PageID,
		comments: comments,
		chats:    chats,
		sem:      make(chan struct{}, maxConcurrent),
		keys:     newKeyedMutex(),
		logger:   logger,
	}
}

// Dispatch processes every event of the delivery and returns once all have
// terminated in a logged outcome. It never returns an error: per-event
// failures are logged and counted, not propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *Payload) {
	correlationID := uuid.New().String()
	logger := d.logger.With().Str("correlation_id", correlationID).Logger()

	var wg sync.WaitGroup

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			wg.Add(1)

			go func(change Change) {
				defer wg.Done()
				d.runGuarded(ctx, &logger, func(ctx context.Context) {
					d.dispatchChange(ctx, &logger, change)
				})
			}(change)
		}

		for _, event := range entry.Messaging {
			wg.Add(1)

			go func(event MessagingEvent) {
				defer wg.Done()
				d.runGuarded(ctx, &logger, func(ctx context.Context) {
					d.dispatchMessaging(ctx, &logger, event)
				})
			}(event)
		}
	}

	wg.Wait()
}

// runGuarded bounds concurrency and converts panics into logged outcomes so
// no event can take down its siblings.
func (d *Dispatcher) runGuarded(ctx context.Context, logger *zerolog.Logger, fn func(ctx context.Context)) {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		logger.Warn().Msg("shutdown before event started, dropping")

		return
	}

	defer func() { <-d.sem }()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Any("panic", r).Msg("panic while processing webhook event")
			observability.CommentsProcessed.WithLabelValues(observability.OutcomeError).Inc()
		}
	}()

	fn(ctx)
}

func (d *Dispatcher) dispatchChange(ctx context.Context, logger *zerolog.Logger, change Change) {
	var feed FeedChange
	if err := json.Unmarshal(change.Value, &feed); err != nil {
		logger.Warn().Err(err).Str("field", change.Field).Msg("unrecognized change payload, dropping")

		return
	}

	switch {
	case feed.Item == itemComment && feed.Verb == verbAdd && feed.Message != "":
		observability.WebhookEventsReceived.WithLabelValues("comment_add").Inc()

		unlock := d.keys.Lock(TrailingID(feed.CommentID))
		defer unlock()

		if err := d.comments.ProcessAdd(ctx, feed, change.Value); err != nil {
			logger.Error().Err(err).Str("comment_id", feed.CommentID).Msg("comment processing failed")
		}

	case feed.Item == itemComment && feed.Verb == verbRemove:
		observability.WebhookEventsReceived.WithLabelValues("comment_remove").Inc()

		unlock := d.keys.Lock(TrailingID(feed.CommentID))
		defer unlock()

		if err := d.comments.ProcessRemove(ctx, feed); err != nil {
			logger.Error().Err(err).Str("comment_id", feed.CommentID).Msg("comment removal failed")
		}

	case feed.Item == itemReaction:
		// Logged only; reactions carry no side effects.
		observability.WebhookEventsReceived.WithLabelValues("reaction").Inc()
		logger.Info().
			Str("reaction_type", feed.ReactionType).
			Str("from", feed.From.Name).
			Msg("reaction received")

	default:
		observability.WebhookEventsReceived.WithLabelValues("unknown").Inc()
		logger.Info().Str("item", feed.Item).Str("verb", feed.Verb).Msg("unknown event, ignoring")
	}
}

func (d *Dispatcher) dispatchMessaging(ctx context.Context, logger *zerolog.Logger, event MessagingEvent) {
	// Pre-filter: only events with text, and never the page's own echoed
	// sends.
	if event.Message.Text == "" || event.Sender.ID == d.pageID {
		logger.Debug().Str("sender", event.Sender.ID).Msg("messaging event filtered")

		return
	}

	observability.WebhookEventsReceived.WithLabelValues("message").Inc()

	unlock := d.keys.Lock(event.Sender.ID)
	defer unlock()

	if err := d.chats.Process(ctx, event.Sender.ID, event.Message.Text); err != nil {
		logger.Error().Err(err).Str("psid", event.Sender.ID).Msg("chat processing failed")
	}
}
