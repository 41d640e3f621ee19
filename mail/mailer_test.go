package mail_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-accounts/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMessage struct {
	to      string
	subject string
	body    string
}

func captureSender(out *capturedMessage) mail.Sender {
	return mail.SenderFunc(func(ctx context.Context, to, subject, htmlBody string) error {
		out.to = to
		out.subject = subject
		out.body = htmlBody
		return nil
	})
}

func newTestMailer(t *testing.T, out *capturedMessage) *mail.TemplatedMailer {
	t.Helper()

	mailer, err := mail.NewTemplatedMailer(captureSender(out), mail.Config{
		AppName:   "Example App",
		BaseURL:   "https://app.example.com",
		ResetPath: "/password-reset",
	})
	require.NoError(t, err)
	return mailer
}

func TestSendWelcome(t *testing.T) {
	var msg capturedMessage
	mailer := newTestMailer(t, &msg)

	err := mailer.SendWelcome(context.Background(), "person@example.com", "Test Person")
	require.NoError(t, err)

	assert.Equal(t, "person@example.com", msg.to)
	assert.Equal(t, "Welcome to Example App", msg.subject)
	assert.Contains(t, msg.body, "Welcome to Example App")
	assert.Contains(t, msg.body, "Test Person")
}

func TestSendPasswordReset(t *testing.T) {
	var msg capturedMessage
	mailer := newTestMailer(t, &msg)

	err := mailer.SendPasswordReset(context.Background(), "person@example.com", "Test Person", "tok-123abc")
	require.NoError(t, err)

	assert.Equal(t, "person@example.com", msg.to)
	assert.Equal(t, "Reset your Example App password", msg.subject)
	assert.Contains(t, msg.body, "https://app.example.com/password-reset/tok-123abc")
}

func TestSendPasswordChanged(t *testing.T) {
	var msg capturedMessage
	mailer := newTestMailer(t, &msg)

	err := mailer.SendPasswordChanged(context.Background(), "person@example.com", "Test Person")
	require.NoError(t, err)

	assert.Equal(t, "person@example.com", msg.to)
	assert.Equal(t, "Your Example App password was changed", msg.subject)
	assert.Contains(t, msg.body, "Test Person")
}

func TestSenderFailurePropagates(t *testing.T) {
	boom := errors.New("smtp unavailable")
	mailer, err := mail.NewTemplatedMailer(mail.SenderFunc(func(ctx context.Context, to, subject, htmlBody string) error {
		return boom
	}), mail.Config{AppName: "Example App"})
	require.NoError(t, err)

	err = mailer.SendWelcome(context.Background(), "person@example.com", "Test Person")
	assert.ErrorIs(t, err, boom)
}

func TestConfigDefaults(t *testing.T) {
	var msg capturedMessage
	mailer, err := mail.NewTemplatedMailer(captureSender(&msg), mail.Config{
		BaseURL: "https://app.example.com",
	})
	require.NoError(t, err)

	err = mailer.SendPasswordReset(context.Background(), "person@example.com", "Test Person", "tok")
	require.NoError(t, err)

	assert.Equal(t, "Reset your Accounts password", msg.subject)
	assert.Contains(t, msg.body, "https://app.example.com/password-reset/tok")
}

type recordingLogger struct {
	infos int
}

func (l *recordingLogger) Debug(format string, args ...any) {}
func (l *recordingLogger) Info(format string, args ...any)  { l.infos++ }
func (l *recordingLogger) Warn(format string, args ...any)  {}
func (l *recordingLogger) Error(format string, args ...any) {}

func TestLogSender(t *testing.T) {
	logger := &recordingLogger{}
	sender := mail.LogSender{Logger: logger}

	err := sender.Send(context.Background(), "person@example.com", "hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, 1, logger.infos)

	// nil logger is a silent no-op
	err = mail.LogSender{}.Send(context.Background(), "person@example.com", "hello", "<p>hi</p>")
	assert.NoError(t, err)
}
