package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrLineNotConfigured is returned when no channel access token is set.
var ErrLineNotConfigured = errors.New("line channel access token is not configured")

// LineConfig for the Messaging API client. BaseURL is overridable for tests.
type LineConfig struct {
	ChannelAccessToken string
	BaseURL            string
	Timeout            time.Duration
}

// LineClient sends push and reply messages through the LINE Messaging API.
type LineClient struct {
	cfg  LineConfig
	http *http.Client
}

func NewLineClient(cfg LineConfig) *LineClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.line.me"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &LineClient{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type lineTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Push delivers a text message to a user by their LINE user id.
func (c *LineClient) Push(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"to":       to,
		"messages": []lineTextMessage{{Type: "text", Text: text}},
	}
	return c.call(ctx, "/v2/bot/message/push", payload)
}

// Reply answers an inbound event using its reply token.
func (c *LineClient) Reply(ctx context.Context, replyToken, text string) error {
	payload := map[string]interface{}{
		"replyToken": replyToken,
		"messages":   []lineTextMessage{{Type: "text", Text: text}},
	}
	return c.call(ctx, "/v2/bot/message/reply", payload)
}

func (c *LineClient) call(ctx context.Context, path string, payload interface{}) error {
	if strings.TrimSpace(c.cfg.ChannelAccessToken) == "" {
		return ErrLineNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ChannelAccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("line api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
