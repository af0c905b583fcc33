package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Chat is the per-user conversational thread, keyed by PSID. Name and phone
// are learned over time from inbound messages.
type Chat struct {
	ID          int64
	PageID      string
	PSID        string
	UserName    string
	PhoneNumber string
	LastMessage string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const chatColumns = `id, page_id, psid, user_name, phone_number, last_message, created_at, updated_at`

// GetChatByPSID returns the chat thread for the user, or nil when none exists.
func (db *DB) GetChatByPSID(ctx context.Context, psid string) (*Chat, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE psid = $1`, psid)

	c, err := scanChat(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("get chat by psid: %w", err)
	}

	return c, nil
}

// UpsertChat creates or updates the thread for psid. Empty inputs never
// clobber stored values: a captured name or phone survives later messages
// that don't carry one. updated_at advances on every call.
func (db *DB) UpsertChat(ctx context.Context, pageID, psid, userName, phoneNumber, lastMessage string) (*Chat, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO chats (page_id, psid, user_name, phone_number, last_message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (psid) DO UPDATE SET
			user_name    = COALESCE(NULLIF(EXCLUDED.user_name, ''), chats.user_name),
			phone_number = COALESCE(NULLIF(EXCLUDED.phone_number, ''), chats.phone_number),
			last_message = COALESCE(NULLIF(EXCLUDED.last_message, ''), chats.last_message),
			updated_at   = NOW()
		RETURNING `+chatColumns,
		pageID, psid, toText(SanitizeUTF8(userName)), toText(phoneNumber), toText(SanitizeUTF8(lastMessage)))

	c, err := scanChat(row)
	if err != nil {
		return nil, fmt.Errorf("upsert chat: %w", err)
	}

	return c, nil
}

func scanChat(row pgx.Row) (*Chat, error) {
	var (
		c           Chat
		userName    pgtype.Text
		phoneNumber pgtype.Text
		lastMessage pgtype.Text
	)

	if err := row.Scan(&c.ID, &c.PageID, &c.PSID, &userName, &phoneNumber, &lastMessage,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.UserName = fromText(userName)
	c.PhoneNumber = fromText(phoneNumber)
	c.LastMessage = fromText(lastMessage)

	return &c, nil
}
