package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	// telegramAPIBase is the Bot API endpoint template
	telegramAPIBase = "https://api.telegram.org"
	// telegramTimeout bounds a single delivery
	telegramTimeout = 10 * time.Second
)

// TelegramSink delivers messages through the Telegram Bot API. It is only
// constructed when both credentials are configured; its absence never affects
// console output or engine behavior.
type TelegramSink struct {
	baseURL string
	token   string
	chatID  string
	httpc   *http.Client
}

// NewTelegramSink creates a Telegram sink for the given bot token and chat ID.
func NewTelegramSink(token, chatID string) *TelegramSink {
	return &TelegramSink{
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
		httpc:   &http.Client{Timeout: telegramTimeout},
	}
}

// Name implements Sink.
func (s *TelegramSink) Name() string { return "telegram" }

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send implements Sink. HTML parse mode lets the daily briefing embed links
// in titles; alert messages carry no markup and pass through unchanged.
func (s *TelegramSink) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    s.chatID,
		Text:      message,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API status %d", resp.StatusCode)
	}

	return nil
}
