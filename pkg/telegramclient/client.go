/**
 * @description
 * This package provides a client for the Telegram Bot API. It encapsulates
 * the logic for making HTTP requests to the Bot API methods the membership
 * bot uses: long-polling for updates, sending and editing messages, creating
 * single-use channel invite links, and removing members.
 */
package telegramclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client is a client for the Telegram Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Bot API client. The base URL is a parameter so
// tests can point the client at a local server.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		// Long polls block up to 30s server-side; the transport timeout
		// must sit above that.
		httpClient: &http.Client{Timeout: 50 * time.Second},
	}
}

// APIError is a non-ok response from the Bot API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// IsNotModified reports whether err is Telegram rejecting an edit because the
// message content and reply markup are already exactly what was requested.
func IsNotModified(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Description, "message is not modified") ||
		strings.Contains(apiErr.Description, "exactly the same")
}

// IsNotMember reports whether err means the target user is not (or no longer)
// a member of the chat, which the expiry sweep treats as a successful removal.
func IsNotMember(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	desc := strings.ToLower(apiErr.Description)
	return strings.Contains(desc, "not a member") || strings.Contains(desc, "user not found")
}

// apiResponse is the Bot API envelope around every method result.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// call performs one Bot API method invocation, unmarshalling the result into
// out when out is non-nil.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         timeoutSeconds,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

// SendMarkdownMessage sends a message rendered with the legacy Markdown
// parse mode. Interpolated user text must be escaped with EscapeMarkdown.
func (c *Client) SendMarkdownMessage(ctx context.Context, chatID, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}, nil)
}

// SendPhoto forwards a photo by file ID with a caption and an optional inline
// keyboard, returning the ID of the sent message so it can be edited later.
func (c *Client) SendPhoto(ctx context.Context, chatID, fileID, caption string, keyboard [][]InlineKeyboardButton) (int64, error) {
	params := map[string]any{
		"chat_id": chatID,
		"photo":   fileID,
		"caption": caption,
	}
	if keyboard != nil {
		params["reply_markup"] = InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}
	var msg Message
	if err := c.call(ctx, "sendPhoto", params, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditMessageCaption replaces the caption of a previously sent message,
// rendered with the legacy Markdown parse mode.
func (c *Client) EditMessageCaption(ctx context.Context, chatID string, messageID int64, caption string) error {
	return c.call(ctx, "editMessageCaption", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"caption":    caption,
		"parse_mode": "Markdown",
	}, nil)
}

// ClearReplyMarkup removes the inline keyboard from a previously sent message.
func (c *Client) ClearReplyMarkup(ctx context.Context, chatID string, messageID int64) error {
	return c.call(ctx, "editMessageReplyMarkup", map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}},
	}, nil)
}

// AnswerCallbackQuery acknowledges a button press. Telegram shows a spinner
// on the button until this is called, so it must happen promptly.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackQueryID,
	}, nil)
}

// CreateChatInviteLink creates a single-use invite link for the channel that
// expires at the given time. Redemption is direct, not a join request.
func (c *Client) CreateChatInviteLink(ctx context.Context, chatID, name string, expireAt time.Time) (string, error) {
	var link ChatInviteLink
	err := c.call(ctx, "createChatInviteLink", map[string]any{
		"chat_id":              chatID,
		"name":                 name,
		"member_limit":         1,
		"expire_date":          expireAt.Unix(),
		"creates_join_request": false,
	}, &link)
	if err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

// BanChatMember removes a user from the channel and prevents re-joining
// without a fresh invite.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID string) error {
	return c.call(ctx, "banChatMember", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	}, nil)
}
