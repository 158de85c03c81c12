// Package notification renders outbound account emails and hands them to an
// EmailSender.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable email.
type Template struct {
	ID      string
	Subject string
	Body    string
}

const TemplatePasswordReset = "password-reset"

var builtIn = []Template{
	{
		ID:      TemplatePasswordReset,
		Subject: "Password reset request",
		Body: "A password reset was requested for your clinicdesk account.\n\n" +
			"Reset code: {{token}}\n\n" +
			"The code expires at {{expires_at}}. If you did not ask for a reset, ignore this message.",
	},
}

// Mailer renders templates and sends the result.
type Mailer struct {
	sender    EmailSender
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMailer creates a Mailer with the built-in templates registered.
func NewMailer(sender EmailSender) *Mailer {
	m := &Mailer{sender: sender, templates: make(map[string]Template)}
	for _, t := range builtIn {
		m.templates[t.ID] = t
	}
	return m
}

// RegisterTemplate adds or replaces a template.
func (m *Mailer) RegisterTemplate(t Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t
}

// Render performs {{key}} replacement on the template's subject and body.
// Keys present in the template but absent from data are left as-is.
func (m *Mailer) Render(templateID string, data map[string]string) (subject, body string, err error) {
	m.mu.RLock()
	t, ok := m.templates[templateID]
	m.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(t.Subject), r.Replace(t.Body), nil
}

// Send renders templateID with data and mails it to the recipient.
func (m *Mailer) Send(ctx context.Context, templateID, to string, data map[string]string) error {
	subject, body, err := m.Render(templateID, data)
	if err != nil {
		return err
	}
	if err := m.sender.SendEmail(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send %s email: %w", templateID, err)
	}
	return nil
}

// SendPasswordReset mails a reset code to the account email.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	return m.Send(ctx, TemplatePasswordReset, email, map[string]string{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC1123),
	})
}

// LogSender writes outgoing email to the log instead of delivering it. It is
// the sender used when no mail relay is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mailer").Logger()}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email not delivered: no relay configured")
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records calls for tests.
type MockEmailSender struct {
	mu    sync.Mutex
	calls []EmailCall
	Err   error
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	return m.Err
}

func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
