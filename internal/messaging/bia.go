// Package messaging delivers outbound text messages through the BIA CRM gateway.
package messaging

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

	"barberbridge/internal/config"

	"github.com/rs/zerolog"
)

const sendPath = "/api/messages/send"

var ErrNotConfigured = errors.New("messaging gateway url not configured")

type sendRequest struct {
	Number string `json:"number"`
	Body   string `json:"body"`
}

// BIAClient posts {number, body} to <base_url>/api/messages/send with a bearer token.
type BIAClient struct {
	url    string
	token  string
	http   *http.Client
	logger *zerolog.Logger
}

func NewBIAClient(cfg config.MessagingConfig, logger *zerolog.Logger) *BIAClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	url := ""
	if base != "" {
		url = base + sendPath
	}
	return &BIAClient{
		url:    url,
		token:  strings.TrimSpace(cfg.Token),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *BIAClient) Send(ctx context.Context, phone, body string) error {
	if c.url == "" {
		return ErrNotConfigured
	}

	raw, err := json.Marshal(sendRequest{Number: phone, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bia request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bia returned status %d", resp.StatusCode)
	}

	c.logger.Debug().Str("phone", phone).Msg("message sent via BIA")
	return nil
}

// NoopSender drops messages; used when no gateway is configured.
type NoopSender struct {
	logger *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(_ context.Context, phone, _ string) error {
	s.logger.Debug().Str("phone", phone).Msg("messaging disabled, message dropped")
	return nil
}
