package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/observability"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
	"github.com/lueurxax/page-engage-bot/internal/worker"
)

// PendingStore lists comments with an undelivered DM.
type PendingStore interface {
	GetPendingDMs(ctx context.Context) ([]db.Comment, error)
}

// RunPendingSweep periodically reports the pending-DM backlog: comments
// whose reply was generated but never delivered. Failed sends are never
// retried automatically; operators act on the gauge and logs.
func RunPendingSweep(ctx context.Context, store PendingStore, interval time.Duration, logger *zerolog.Logger) error {
	return worker.Loop(ctx, worker.Config{
		Name:         "pending-dm-sweep",
		PollInterval: interval,
		Logger:       logger,
		Process: func(ctx context.Context) error {
			pending, err := store.GetPendingDMs(ctx)
			if err != nil {
				return fmt.Errorf("list pending dms: %w", err)
			}

			observability.PendingDMBacklog.Set(float64(len(pending)))

			if len(pending) > 0 {
				oldest := pending[0]
				logger.Warn().
					Int("count", len(pending)).
					Str("oldest_comment_id", oldest.CommentID).
					Time("oldest_created_at", oldest.CreatedAt).
					Msg("comments with undelivered DMs")
			}

			return nil
		},
	})
}
