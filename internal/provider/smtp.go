package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/rootfleet/waitlist/internal/logging"
)

// dialer is the subset of *gomail.Dialer used here; tests substitute it.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPProvider delivers email over SMTP. gomail has no context support, so
// the send runs in a goroutine and Send returns as soon as ctx is done; the
// abandoned dial finishes in the background.
type SMTPProvider struct {
	dialer  dialer
	host    string
	timeout time.Duration
	logger  *zap.Logger
}

func NewSMTPProvider(host string, port int, user, password string, timeout time.Duration, logger *zap.Logger) *SMTPProvider {
	var d dialer
	if host != "" {
		d = gomail.NewDialer(host, port, user, password)
	}
	return &SMTPProvider{dialer: d, host: host, timeout: timeout, logger: logger}
}

func (p *SMTPProvider) Configured() bool { return p.dialer != nil }

func (p *SMTPProvider) Send(ctx context.Context, e Email) (*SendResponse, error) {
	if p.dialer == nil {
		return nil, fmt.Errorf("smtp provider is not configured")
	}
	start := time.Now()
	log := p.logger.With(zap.String("request_id", e.RequestID), zap.String("smtp_host", p.host))
	log.Info("smtp.send.start", zap.String("to_domain", logging.EmailDomain(e.To)))

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), p.host)

	msg := gomail.NewMessage()
	msg.SetHeader("From", e.From)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetHeader("Message-ID", messageID)
	msg.SetBody("text/plain", e.Text)
	msg.AddAlternative("text/html", e.HTML)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- p.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn("smtp.send.fail", zap.Duration("smtp_ms", time.Since(start)), zap.Error(err))
			return nil, fmt.Errorf("smtp send: %w", err)
		}
	case <-ctx.Done():
		log.Warn("smtp.send.fail", zap.Duration("smtp_ms", time.Since(start)), zap.Error(ctx.Err()))
		return nil, fmt.Errorf("smtp send: %w", ctx.Err())
	}

	log.Info("smtp.send.ok", zap.Duration("smtp_ms", time.Since(start)), zap.String("id", messageID))
	return &SendResponse{ID: messageID}, nil
}

// compile-time check that SMTPProvider implements EmailProvider
var _ EmailProvider = (*SMTPProvider)(nil)
