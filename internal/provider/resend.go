package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/logging"
)

const maxBodyPreview = 300

// resendRequest is the JSON body posted to POST /emails.
type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// ResendProvider delivers email through the Resend HTTP API.
// The base URL is injected from config so tests can point to a local mock.
type ResendProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewResendProvider(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ResendProvider {
	return &ResendProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (p *ResendProvider) Configured() bool { return p.apiKey != "" }

// Send posts the message and expects a 2xx response with a JSON body
// containing the message id. Any other status becomes a *Error.
func (p *ResendProvider) Send(ctx context.Context, e Email) (*SendResponse, error) {
	start := time.Now()
	log := p.logger.With(zap.String("request_id", e.RequestID))
	log.Info("resend.send.start", zap.String("to_domain", logging.EmailDomain(e.To)))

	body, err := json.Marshal(resendRequest{
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		HTML:    e.HTML,
		Text:    e.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Warn("resend.send.fail", zap.Duration("resend_ms", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := logging.Truncate(string(raw), maxBodyPreview)
		log.Warn("resend.send.fail",
			zap.Duration("resend_ms", elapsed),
			zap.Int("status", resp.StatusCode),
			zap.String("body_preview", preview),
		)
		return nil, &Error{StatusCode: resp.StatusCode, Body: preview}
	}

	var sendResp SendResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sendResp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}

	log.Info("resend.send.ok",
		zap.Duration("resend_ms", elapsed),
		zap.Int("status", resp.StatusCode),
		zap.String("id", sendResp.ID),
	)
	return &sendResp, nil
}

// compile-time check that ResendProvider implements EmailProvider
var _ EmailProvider = (*ResendProvider)(nil)
