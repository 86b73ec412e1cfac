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

// ErrEmailNotConfigured is returned when no API key is set.
var ErrEmailNotConfigured = errors.New("resend api key is not configured")

// EmailConfig for the Resend client. BaseURL is overridable for tests.
type EmailConfig struct {
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
}

// EmailClient sends transactional email through the Resend API.
type EmailClient struct {
	cfg  EmailConfig
	http *http.Client
}

func NewEmailClient(cfg EmailConfig) *EmailClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.resend.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EmailClient{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one HTML email.
func (c *EmailClient) Send(ctx context.Context, to, subject, html string) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return ErrEmailNotConfigured
	}

	body, err := json.Marshal(sendEmailRequest{
		From:    c.cfg.From,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
