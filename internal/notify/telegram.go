package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"sigawatch/internal/components/assert"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_telegram_send = "telegram.send"
)

// TelegramClient sends messages through the Telegram bot API.
type TelegramClient struct {
	http   *resty.Client
	tel    telemetry.API
	token  string
	chatID string
}

// NewTelegramClient returns a client for the bot. baseURL is the api root,
// ex. https://api.telegram.org
func NewTelegramClient(baseURL string, creds config.Credentials, tel telemetry.API) *TelegramClient {
	assert.NotEmptyStr(baseURL)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("telegram", tel)

	httpClient := resty.New()
	httpClient.SetTimeout(10 * time.Second)
	httpClient.SetBaseURL(baseURL)

	// the bot api allows about one message per second to the same chat
	rateLimiter := rate.NewLimiter(1, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(httpClient, tel, "sigawatch.notify.telegram")

	return &TelegramClient{
		http:   httpClient,
		tel:    tel,
		token:  creds.BotToken,
		chatID: creds.BotChatID,
	}
}

// Send posts a Markdown message to the chat. The response is only checked
// for being a JSON document, its top level keys are logged.
func (c *TelegramClient) Send(ctx context.Context, text string) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetRawPathParam("token", c.token).
		SetQueryParams(map[string]string{
			"chat_id":    c.chatID,
			"parse_mode": "Markdown",
			"text":       text,
		}).
		Get("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	var body map[string]any
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		err = fmt.Errorf("decode response (%s): %w", res.Status(), err)
		c.tel.ReportBroken(report_telegram_send, err)
		return err
	}
	keys := slices.Sorted(maps.Keys(body))
	c.tel.ReportInfo("message sent to telegram", "status", res.StatusCode(), "response_keys", keys)

	if res.IsError() {
		return fmt.Errorf("send message: telegram responded %s: %v", res.Status(), body["description"])
	}
	return nil
}
