package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/template/django/v3"
)

// Config holds the values every outgoing message needs.
type Config struct {
	// AppName is interpolated into subjects and bodies
	AppName string
	// BaseURL is the public URL links are built against
	BaseURL string
	// ResetPath is joined to BaseURL with the token appended
	ResetPath string
}

// TemplatedMailer renders django templates into HTML bodies and hands
// them to a Sender. It implements the accounts.Mailer interface.
type TemplatedMailer struct {
	sender Sender
	engine *django.Engine
	cfg    Config
}

// NewTemplatedMailer loads the embedded templates and returns a mailer.
func NewTemplatedMailer(sender Sender, cfg Config) (*TemplatedMailer, error) {
	if cfg.AppName == "" {
		cfg.AppName = "Accounts"
	}
	if cfg.ResetPath == "" {
		cfg.ResetPath = "/password-reset"
	}

	engine := django.NewPathForwardingFileSystem(http.FS(templatesFS), "/templates", ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}

	return &TemplatedMailer{
		sender: sender,
		engine: engine,
		cfg:    cfg,
	}, nil
}

// SendWelcome delivers the post registration greeting.
func (m *TemplatedMailer) SendWelcome(ctx context.Context, email, name string) error {
	body, err := m.render("welcome", map[string]any{
		"app_name": m.cfg.AppName,
		"name":     name,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Welcome to %s", m.cfg.AppName)
	return m.sender.Send(ctx, email, subject, body)
}

// SendPasswordReset delivers the reset link carrying the plaintext
// token. The token appears nowhere else.
func (m *TemplatedMailer) SendPasswordReset(ctx context.Context, email, name, token string) error {
	body, err := m.render("password_reset", map[string]any{
		"app_name":  m.cfg.AppName,
		"name":      name,
		"reset_url": fmt.Sprintf("%s%s/%s", m.cfg.BaseURL, m.cfg.ResetPath, token),
		"expires":   "1 hour",
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Reset your %s password", m.cfg.AppName)
	return m.sender.Send(ctx, email, subject, body)
}

// SendPasswordChanged delivers the post change notification.
func (m *TemplatedMailer) SendPasswordChanged(ctx context.Context, email, name string) error {
	body, err := m.render("password_changed", map[string]any{
		"app_name":   m.cfg.AppName,
		"name":       name,
		"changed_at": time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your %s password was changed", m.cfg.AppName)
	return m.sender.Send(ctx, email, subject, body)
}

func (m *TemplatedMailer) render(template string, binding map[string]any) (string, error) {
	out := &bytes.Buffer{}
	if err := m.engine.Render(out, template, binding); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", template, err)
	}
	return out.String(), nil
}
