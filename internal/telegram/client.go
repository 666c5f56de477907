// Package telegram adapts the Bot API to the conversation engine: it
// long-polls for updates, classifies them into dialog events, and
// delivers rendered replies and fill notifications.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/api"
	"github.com/shashwatraajsingh/TRADEETH/internal/dialog"
)

const apiBase = "https://api.telegram.org/bot"

// Update is one incoming Bot API update.
type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int    `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	ID int64 `json:"id"`
}

type CallbackQuery struct {
	ID   string `json:"id"`
	From User   `json:"from"`
	Data string `json:"data,omitempty"`
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description,omitempty"`
}

// Client is a minimal Bot API client. Sends and long-polls run over
// separate HTTP clients because a poll request intentionally hangs for
// the whole poll timeout.
type Client struct {
	send        *api.Client
	poll        *api.Client
	pollTimeout int
}

// NewClient creates a client for the given bot token. pollTimeoutSeconds
// is the server-side long-poll hold time.
func NewClient(token string, pollTimeoutSeconds int) *Client {
	if pollTimeoutSeconds <= 0 {
		pollTimeoutSeconds = 30
	}
	base := apiBase + token
	return &Client{
		send: api.NewClient(
			api.WithBaseURL(base),
			api.WithTimeout(10*time.Second),
			api.WithLogging(true),
		),
		// The HTTP timeout must outlive the server-side hold.
		poll: api.NewClient(
			api.WithBaseURL(base),
			api.WithTimeout(time.Duration(pollTimeoutSeconds+5)*time.Second),
		),
		pollTimeout: pollTimeoutSeconds,
	}
}

func decodeResult[T any](body []byte) (T, error) {
	var r apiResponse[T]
	if err := json.Unmarshal(body, &r); err != nil {
		var zero T
		return zero, fmt.Errorf("telegram: decode response: %w", err)
	}
	if !r.OK {
		var zero T
		return zero, fmt.Errorf("telegram: api error: %s", r.Description)
	}
	return r.Result, nil
}

func chatID(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: bad chat id %q: %w", userID, err)
	}
	return id, nil
}

// SendMessage delivers a dialog reply, with an inline keyboard when
// menu buttons are attached.
func (c *Client) SendMessage(ctx context.Context, userID, text string, keyboard [][]dialog.Button) error {
	id, err := chatID(userID)
	if err != nil {
		return err
	}

	req := sendMessageRequest{ChatID: id, Text: text}
	if len(keyboard) > 0 {
		markup := &inlineKeyboardMarkup{}
		for _, r := range keyboard {
			var line []inlineKeyboardButton
			for _, b := range r {
				line = append(line, inlineKeyboardButton{Text: b.Label, CallbackData: b.Token})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, line)
		}
		req.ReplyMarkup = markup
	}

	resp, err := c.send.POST(ctx, "/sendMessage", req)
	if err != nil {
		return fmt.Errorf("telegram: sendMessage: %w", err)
	}
	_, err = decodeResult[Message](resp.Body)
	return err
}

// Notify delivers a plain-text fill announcement.
func (c *Client) Notify(ctx context.Context, userID, message string) error {
	return c.SendMessage(ctx, userID, message, nil)
}

// AnswerCallbackQuery acknowledges a button tap so the client stops
// showing its spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID string) error {
	resp, err := c.send.POST(ctx, "/answerCallbackQuery", answerCallbackRequest{CallbackQueryID: queryID})
	if err != nil {
		return fmt.Errorf("telegram: answerCallbackQuery: %w", err)
	}
	_, err = decodeResult[bool](resp.Body)
	return err
}

// GetUpdates long-polls for updates past offset.
func (c *Client) GetUpdates(ctx context.Context, offset int) ([]Update, error) {
	url := fmt.Sprintf("/getUpdates?offset=%d&timeout=%d", offset, c.pollTimeout)
	resp, err := c.poll.GET(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("telegram: getUpdates: %w", err)
	}
	return decodeResult[[]Update](resp.Body)
}
