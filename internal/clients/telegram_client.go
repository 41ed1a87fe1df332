package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramClient sends order notifications to the shop's Telegram chat.
// The client returns errors; deciding whether a failed notification is fatal
// is the caller's business (checkout logs and continues).
type TelegramClient struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewTelegramClient(botToken, chatID string, log *logrus.Logger) *TelegramClient {
	return &TelegramClient{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Enabled reports whether the client has credentials to send with.
func (c *TelegramClient) Enabled() bool {
	return c.botToken != "" && c.chatID != ""
}

// SendMessage posts an HTML-formatted message to the configured chat.
func (c *TelegramClient) SendMessage(ctx context.Context, text string) error {
	if !c.Enabled() {
		return fmt.Errorf("telegram: bot token or chat id not configured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	form := url.Values{
		"chat_id":    {c.chatID},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: sendMessage returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
