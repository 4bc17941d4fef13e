// Package crm pushes closed-conversation records to an external CRM webhook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	logx "github.com/iafluence/agentic-seller/pkg/logger"
)

type Config struct {
	URL     string        `split_words:"true"`
	Token   string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// WebhookSink posts one JSON document per closed conversation. The receiving
// side owns dedup; the sink itself never retries.
type WebhookSink struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

var _ contractx.RecordSink = (*WebhookSink)(nil)

func NewWebhookSink(cfg Config) (*WebhookSink, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("crm webhook url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookSink{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (s *WebhookSink) Push(ctx context.Context, record contractx.CRMRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal crm record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push crm record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	crmLog := logx.For("crm")
	crmLog.Debug().
		Str("session_id", record.SessionID).
		Msg("crm record delivered")
	return nil
}

// LogSink is the default when no webhook is configured. It writes the record
// to the structured log so demo runs still show the final CRM payload.
type LogSink struct{}

var _ contractx.RecordSink = LogSink{}

func (LogSink) Push(_ context.Context, record contractx.CRMRecord) error {
	crmLog := logx.For("crm")
	crmLog.Info().
		Str("session_id", record.SessionID).
		Str("lead_type", record.LeadType).
		Bool("converted", record.Converted).
		Bool("escalated", record.Escalated).
		Msg("crm record")
	return nil
}
