package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPMailer sends plain-text email through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer configures the client without dialing. Authentication is only used when user is set.
func NewSMTPMailer(host string, port int, user, pass, from string) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(pass),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// NoopMailer logs messages instead of sending them. Used when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) Send(_ context.Context, to, subject, _ string) error {
	slog.Info("email disabled, dropping message", "to", to, "subject", subject)
	return nil
}
