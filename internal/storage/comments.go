package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Comment is a page comment tracked by the bot. CommentID holds only the
// trailing segment of the platform's compound id; the full compound id is
// never stored.
type Comment struct {
	ID          int64
	CommentID   string
	PostID      string
	UserID      string
	UserName    string
	Message     string
	CreatedTime time.Time
	RawJSON     []byte
	Intent      string
	DMMessage   string
	DMSent      bool
	DMSentTime  *time.Time
	CreatedAt   time.Time
}

// ErrDuplicateComment is returned by CreateComment when a record with the
// same comment id already exists. Callers dedup first; hitting this means a
// redelivery raced the dedup check.
var ErrDuplicateComment = errors.New("comment already exists")

const uniqueViolationCode = "23505"

const commentColumns = `id, comment_id, post_id, user_id, user_name, message,
	created_time, raw_json, intent, dm_message, dm_sent, dm_sent_time, created_at`

func (db *DB) CreateComment(ctx context.Context, c *Comment) (*Comment, error) {
	raw := c.RawJSON
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	row := db.Pool.QueryRow(ctx, `
		INSERT INTO comments (comment_id, post_id, user_id, user_name, message, created_time, raw_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+commentColumns,
		c.CommentID, c.PostID, c.UserID, SanitizeUTF8(c.UserName), SanitizeUTF8(c.Message), c.CreatedTime, raw)

	created, err := scanComment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrDuplicateComment
		}

		return nil, fmt.Errorf("create comment: %w", err)
	}

	return created, nil
}

// GetCommentByID returns the comment with the given (normalized) comment id,
// or nil when no such record exists.
func (db *DB) GetCommentByID(ctx context.Context, commentID string) (*Comment, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE comment_id = $1`, commentID)

	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("get comment by id: %w", err)
	}

	return c, nil
}

// UpdateCommentIntent stores the classifier verdict. dmMessage is stored
// as-is; the pipeline passes empty for intents that must not carry a reply.
func (db *DB) UpdateCommentIntent(ctx context.Context, commentID, intent, dmMessage string) (*Comment, error) {
	row := db.Pool.QueryRow(ctx, `
		UPDATE comments SET intent = $2, dm_message = $3
		WHERE comment_id = $1
		RETURNING `+commentColumns,
		commentID, toText(intent), toText(dmMessage))

	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("update comment intent: %w", err)
	}

	return c, nil
}

// MarkDMSent flags the comment's DM as delivered and records the send time.
func (db *DB) MarkDMSent(ctx context.Context, commentID, externalMessageID string) (*Comment, error) {
	row := db.Pool.QueryRow(ctx, `
		UPDATE comments SET dm_sent = TRUE, dm_sent_time = NOW()
		WHERE comment_id = $1
		RETURNING `+commentColumns,
		commentID)

	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("mark dm sent: %w", err)
	}

	if externalMessageID != "" {
		db.Logger.Debug().Str("comment_id", commentID).Str("message_id", externalMessageID).Msg("dm delivery recorded")
	}

	return c, nil
}

// DeleteCommentByID hard-deletes the comment. Returns false when the record
// was not found (already removed).
func (db *DB) DeleteCommentByID(ctx context.Context, commentID string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM comments WHERE comment_id = $1`, commentID)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetCommentsByIntent lists comments carrying the given intent, newest first.
func (db *DB) GetCommentsByIntent(ctx context.Context, intent string) ([]Comment, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE intent = $1 ORDER BY created_at DESC`, intent)
	if err != nil {
		return nil, fmt.Errorf("get comments by intent: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// GetPendingDMs lists comments with a generated DM that was never delivered.
// Used for manual inspection and the backlog gauge; the pipeline never
// retries these automatically.
func (db *DB) GetPendingDMs(ctx context.Context) ([]Comment, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE dm_message IS NOT NULL AND dm_sent = FALSE
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("get pending dms: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

func collectComments(rows pgx.Rows) ([]Comment, error) {
	var comments []Comment

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}

		comments = append(comments, *c)
	}

	return comments, rows.Err()
}

func scanComment(row pgx.Row) (*Comment, error) {
	var (
		c          Comment
		intent     pgtype.Text
		dmMessage  pgtype.Text
		dmSentTime pgtype.Timestamptz
	)

	if err := row.Scan(&c.ID, &c.CommentID, &c.PostID, &c.UserID, &c.UserName, &c.Message,
		&c.CreatedTime, &c.RawJSON, &intent, &dmMessage, &c.DMSent, &dmSentTime, &c.CreatedAt); err != nil {
		return nil, err
	}

	c.Intent = fromText(intent)
	c.DMMessage = fromText(dmMessage)
	c.DMSentTime = fromTimestamptzPtr(dmSentTime)

	return &c, nil
}
