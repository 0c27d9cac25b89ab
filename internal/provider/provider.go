package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rootfleet/waitlist/internal/config"
)

// Email is one outgoing message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string

	// RequestID is only used to correlate provider log lines.
	RequestID string
}

// SendResponse carries the provider-assigned message id.
type SendResponse struct {
	ID string `json:"id"`
}

// EmailProvider abstracts delivery to an external email service.
// Mocking this interface in tests gives full control over provider behaviour
// without making real network calls.
type EmailProvider interface {
	Send(ctx context.Context, e Email) (*SendResponse, error)
	// Configured reports whether a credential is present. An unconfigured
	// provider is a permanent condition, not a transient failure.
	Configured() bool
}

// Error is returned when the provider answers with a non-2xx status.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error (%d): %s", e.StatusCode, e.Body)
}

// New returns the provider selected by EMAIL_PROVIDER.
func New(cfg *config.Config, logger *zap.Logger) EmailProvider {
	if cfg.EmailProvider == "smtp" {
		return NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.ProviderTimeout, logger)
	}
	return NewResendProvider(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.ProviderTimeout, logger)
}
