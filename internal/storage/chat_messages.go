package db

import (
	"context"
	"fmt"
	"time"
)

// ChatMessage is one entry of the append-only per-user message log.
// Role is RoleUser or RoleAgent.
type ChatMessage struct {
	ID        int64
	PageID    string
	PSID      string
	Role      string
	Text      string
	CreatedAt time.Time
}

func (db *DB) AppendChatMessage(ctx context.Context, pageID, psid, role, text string) (*ChatMessage, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO chat_messages (page_id, psid, role, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		pageID, psid, role, SanitizeUTF8(text))

	msg := &ChatMessage{PageID: pageID, PSID: psid, Role: role, Text: SanitizeUTF8(text)}
	if err := row.Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}

	return msg, nil
}

// GetChatHistory returns up to limit messages for the user, most recent
// first. Callers replaying into the LLM context reverse to chronological.
func (db *DB) GetChatHistory(ctx context.Context, psid string, limit int) ([]ChatMessage, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, page_id, psid, role, text, created_at
		FROM chat_messages
		WHERE psid = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		psid, limit)
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage

	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.PageID, &m.PSID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}
