// Package metaapi is a thin client for the Meta Graph API surface the bot
// uses: private replies to comments, Messenger sends, comment deletion,
// conversation listing, and message history. Responses are parsed
// tolerantly; Meta moves fields between API versions.
package metaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/lueurxax/page-engage-bot/internal/config"
	"github.com/lueurxax/page-engage-bot/internal/observability"
)

// ErrMissingCommentID is returned before any network call when a delete is
// attempted without an id.
var ErrMissingCommentID = errors.New("missing comment id")

const (
	maxErrorBodyLen = 512
	limiterBurst    = 5
)

type Client struct {
	root   string
	token  string
	http   *http.Client
	limit  *rate.Limiter
	logger *zerolog.Logger
}

func NewClient(cfg *config.Config, logger *zerolog.Logger) (*Client, error) {
	if cfg.PageAccessToken == "" {
		return nil, errors.New("page access token is required")
	}

	root := cfg.GraphAPIBaseURL
	if cfg.GraphAPIVersion != "" {
		root += "/" + cfg.GraphAPIVersion
	}

	return &Client{
		root:   root,
		token:  cfg.PageAccessToken,
		http:   &http.Client{Timeout: cfg.GraphAPITimeout},
		limit:  rate.NewLimiter(rate.Limit(cfg.GraphAPIRPS), limiterBurst),
		logger: logger,
	}, nil
}

// SendPrivateReply sends a private reply targeting a comment. pageID is the
// leading segment of the compound post id; commentID must be the full
// compound id the platform supplied. Returns the external message id.
func (c *Client) SendPrivateReply(ctx context.Context, pageID, commentID, text string) (string, error) {
	payload := map[string]any{
		"recipient":    map[string]string{"comment_id": commentID},
		"message":      map[string]string{"text": text},
		"access_token": c.token,
	}

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/messages", c.root, pageID), nil, payload, "private_reply")
	if err != nil {
		return "", err
	}

	return messageID(body), nil
}

// SendMessage sends a Messenger message to a PSID with messaging_type
// RESPONSE. Returns the external message id.
func (c *Client) SendMessage(ctx context.Context, psid, text string) (string, error) {
	payload := map[string]any{
		"recipient":      map[string]string{"id": psid},
		"message":        map[string]string{"text": text},
		"messaging_type": "RESPONSE",
	}

	body, err := c.do(ctx, http.MethodPost, c.root+"/me/messages", nil, payload, "send_message")
	if err != nil {
		return "", err
	}

	return messageID(body), nil
}

// DeleteComment removes a comment via the Graph API DELETE endpoint. The
// full compound comment id is required; a missing id fails immediately
// without a network call.
func (c *Client) DeleteComment(ctx context.Context, fullCommentID string) error {
	if fullCommentID == "" {
		return ErrMissingCommentID
	}

	body, err := c.do(ctx, http.MethodDelete, c.root+"/"+fullCommentID, nil, nil, "delete_comment")
	if err != nil {
		return err
	}

	// Meta reports {"success": false} with HTTP 200 on some failures.
	if res := gjson.GetBytes(body, "success"); res.Exists() && !res.Bool() {
		return fmt.Errorf("comment deletion reported failure: %s", clip(body))
	}

	return nil
}

// ConversationsByPSID lists conversations the user participates in.
func (c *Client) ConversationsByPSID(ctx context.Context, psid string) ([]Conversation, error) {
	params := url.Values{"fields": {"id,link,updated_time,participants"}}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/conversations", c.root, psid), params, nil, "conversations_by_psid")
	if err != nil {
		return nil, err
	}

	return parseConversations(body), nil
}

// ConversationsByPage lists the page's recent conversations.
func (c *Client) ConversationsByPage(ctx context.Context, pageID string, limit int) ([]Conversation, error) {
	params := url.Values{
		"fields": {"id,link,updated_time,participants"},
		"limit":  {strconv.Itoa(limit)},
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/conversations", c.root, pageID), params, nil, "conversations_by_page")
	if err != nil {
		return nil, err
	}

	return parseConversations(body), nil
}

// Messages fetches the most recent messages of a conversation.
func (c *Client) Messages(ctx context.Context, conversationID string, limit int) ([]RawMessage, error) {
	params := url.Values{
		"fields": {"message,from,to,created_time"},
		"limit":  {strconv.Itoa(limit)},
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/messages", c.root, conversationID), params, nil, "messages")
	if err != nil {
		return nil, err
	}

	return parseMessages(body), nil
}

// ValidateToken checks the page access token against the API before a send.
func (c *Client) ValidateToken(ctx context.Context) error {
	params := url.Values{"access_token": {c.token}}

	_, err := c.do(ctx, http.MethodGet, c.root+"/me", params, nil, "validate_token")

	return err
}

func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, payload any, endpoint string) ([]byte, error) {
	if err := c.limit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	if params != nil {
		rawURL += "?" + params.Encode()
	}

	var reqBody io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}

		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.GraphAPIRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())

		return nil, fmt.Errorf("graph api request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	observability.GraphAPIRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph api error: %d - %s", resp.StatusCode, clip(body))
	}

	return body, nil
}

func messageID(body []byte) string {
	if id := gjson.GetBytes(body, "message_id"); id.Exists() {
		return id.String()
	}

	return gjson.GetBytes(body, "id").String()
}

func clip(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen]) + "..."
	}

	return string(body)
}
