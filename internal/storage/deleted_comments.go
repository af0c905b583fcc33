package db

import (
	"context"
	"fmt"
	"time"
)

// DeletedComment is an append-only audit entry written when moderation
// removes a comment. Never mutated or deleted by the bot.
type DeletedComment struct {
	ID            int64
	CommentID     string
	PostID        string
	UserID        string
	UserName      string
	Message       string
	Intent        string
	RemovalReason string
	RemovedAt     time.Time
}

func (db *DB) LogDeletedComment(ctx context.Context, d *DeletedComment) (*DeletedComment, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO deleted_comments (comment_id, post_id, user_id, user_name, message, intent, removal_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, removed_at`,
		d.CommentID, d.PostID, d.UserID, SanitizeUTF8(d.UserName), SanitizeUTF8(d.Message), toText(d.Intent), d.RemovalReason)

	logged := *d
	if err := row.Scan(&logged.ID, &logged.RemovedAt); err != nil {
		return nil, fmt.Errorf("log deleted comment: %w", err)
	}

	return &logged, nil
}
