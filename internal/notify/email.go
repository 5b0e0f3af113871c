// Package notify delivers best-effort email, SMS and admin alerts. Delivery
// failures are logged by the Dispatcher and never reach workflow callers.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"lectern/pkg/email"
)

type Email struct {
	To      string
	Subject string
	HTML    string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

func NewSMTPSender(host string, port int, user, password, from, fromName string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		name:   fromName,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	if s.name != "" {
		m.SetAddressHeader("From", s.from, s.name)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", email.Mask(msg.To), err)
	}
	return nil
}

// LogEmailSender writes messages to the log instead of sending them.
type LogEmailSender struct {
	logger *slog.Logger
}

func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) SendEmail(ctx context.Context, msg Email) error {
	s.logger.InfoContext(ctx, "email not sent (log sink)",
		"to", email.Mask(msg.To),
		"subject", msg.Subject,
	)
	return nil
}
