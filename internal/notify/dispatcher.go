package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lectern/pkg/email"
	"lectern/pkg/requestcontext"
)

// Dispatcher runs sends in the background. Each send gets its own timeout and
// outlives the request that triggered it.
type Dispatcher struct {
	email       EmailSender
	sms         SMSSender
	alerter     Alerter
	adminEmails []string
	timeout     time.Duration
	logger      *slog.Logger
	wg          sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

func WithAlerter(a Alerter) DispatcherOption {
	return func(d *Dispatcher) { d.alerter = a }
}

func WithAdminEmails(addrs []string) DispatcherOption {
	return func(d *Dispatcher) { d.adminEmails = addrs }
}

func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func NewDispatcher(emailSender EmailSender, smsSender SMSSender, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		email:   emailSender,
		sms:     smsSender,
		timeout: 10 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) SendEmail(ctx context.Context, msg Email) {
	if d.email == nil || msg.To == "" {
		return
	}
	d.run(ctx, "email", func(ctx context.Context) error {
		return d.email.SendEmail(ctx, msg)
	}, "to", email.Mask(msg.To), "subject", msg.Subject)
}

func (d *Dispatcher) SendSMS(ctx context.Context, to, text string) {
	if d.sms == nil || to == "" {
		return
	}
	d.run(ctx, "sms", func(ctx context.Context) error {
		_, err := d.sms.SendSMS(ctx, to, text)
		return err
	}, "to", maskPhone(to))
}

// AlertAdmins fans an alert out to the chat alerter and every admin address.
func (d *Dispatcher) AlertAdmins(ctx context.Context, subject, body string) {
	if d.alerter != nil {
		d.run(ctx, "admin_alert", func(ctx context.Context) error {
			return d.alerter.Alert(ctx, subject+"\n\n"+body)
		})
	}
	for _, addr := range d.adminEmails {
		d.SendEmail(ctx, Email{To: addr, Subject: subject, HTML: adminHTML(subject, body)})
	}
}

// Wait blocks until every dispatched send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(parent context.Context, channel string, send func(context.Context) error, attrs ...any) {
	requestID := requestcontext.RequestID(parent)
	base := context.WithoutCancel(parent)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			args := append([]any{"channel", channel, "request_id", requestID, "error", err}, attrs...)
			d.logger.WarnContext(ctx, "notification failed", args...)
			return
		}
		args := append([]any{"channel", channel, "request_id", requestID}, attrs...)
		d.logger.DebugContext(ctx, "notification sent", args...)
	}()
}
