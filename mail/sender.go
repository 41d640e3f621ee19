package mail

import (
	"context"
)

// Sender delivers a rendered message. Implementations wrap SMTP, an
// email API, or a queue.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SenderFunc adapts a function into a Sender.
type SenderFunc func(ctx context.Context, to, subject, htmlBody string) error

// Send satisfies the Sender interface.
func (f SenderFunc) Send(ctx context.Context, to, subject, htmlBody string) error {
	return f(ctx, to, subject, htmlBody)
}

// Logger is the minimal logging surface the mailer needs.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LogSender writes messages to the logger instead of delivering them.
// Meant for development and tests.
type LogSender struct {
	Logger Logger
}

// Send satisfies the Sender interface.
func (s LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.Logger != nil {
		s.Logger.Info("outgoing email", "to", to, "subject", subject, "bytes", len(htmlBody))
	}
	return nil
}
