package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cinephiles/cinebot/internal/model"
)

// Client implements Gateway over the Telegram Bot API.
type Client struct {
	client      *resty.Client
	pollTimeout int
}

var _ Gateway = (*Client)(nil)

// NewClient creates a Client for the given API host and bot token.
// pollTimeout is the long-poll hold time in seconds; the HTTP timeout is
// sized to exceed it so the poll is not cut short.
func NewClient(baseURL, token string, pollTimeout int) *Client {
	c := resty.New().
		SetBaseURL(fmt.Sprintf("%s/bot%s", baseURL, token)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(time.Duration(pollTimeout+10) * time.Second)

	return &Client{client: c, pollTimeout: pollTimeout}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// GetUpdates long-polls for inbound events starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	body := map[string]interface{}{
		"offset":          offset,
		"timeout":         c.pollTimeout,
		"allowed_updates": []string{"message", "callback_query", "inline_query"},
	}
	raw, err := c.call(ctx, "getUpdates", body)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// SendText sends a Markdown text message with an optional keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, kb *Keyboard) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if kb != nil {
		body["reply_markup"] = kb
	}
	_, err := c.call(ctx, "sendMessage", body)
	return err
}

// SendPhoto sends a photo by URL with a Markdown caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb *Keyboard) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"photo":      photoURL,
		"caption":    caption,
		"parse_mode": "Markdown",
	}
	if kb != nil {
		body["reply_markup"] = kb
	}
	_, err := c.call(ctx, "sendPhoto", body)
	return err
}

// EditText replaces the text and keyboard of a previously sent message.
func (c *Client) EditText(ctx context.Context, chatID, messageID int64, text string, kb *Keyboard) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if kb != nil {
		body["reply_markup"] = kb
	}
	_, err := c.call(ctx, "editMessageText", body)
	return err
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	_, err := c.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// AnswerCallback acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	body := map[string]interface{}{"callback_query_id": callbackID}
	if text != "" {
		body["text"] = text
	}
	_, err := c.call(ctx, "answerCallbackQuery", body)
	return err
}

// HealthPing probes the bot identity endpoint; used by the health checker.
func (c *Client) HealthPing(ctx context.Context) error {
	_, err := c.call(ctx, "getMe", map[string]interface{}{})
	return err
}

// AnswerInlineQuery replies to an inline query with article results.
func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []InlineResult) error {
	_, err := c.call(ctx, "answerInlineQuery", map[string]interface{}{
		"inline_query_id": queryID,
		"results":         results,
	})
	return err
}

func (c *Client) call(ctx context.Context, method string, body interface{}) (json.RawMessage, error) {
	resp, err := c.client.R().SetContext(ctx).SetBody(body).Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrDelivery, method, err)
	}
	var ar apiResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		return nil, fmt.Errorf("%w: %s: decode status %d", model.ErrDelivery, method, resp.StatusCode())
	}
	if !ar.OK || resp.StatusCode() != http.StatusOK {
		desc := ar.Description
		if desc == "" {
			desc = "status " + strconv.Itoa(resp.StatusCode())
		}
		return nil, fmt.Errorf("%w: %s: %s", model.ErrDelivery, method, desc)
	}
	return ar.Result, nil
}
