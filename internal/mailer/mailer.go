// Package mailer delivers transactional email. Delivery is strictly
// best-effort: callers log and ignore failures, and a missing SMTP
// configuration disables sending entirely.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer sends the application's templated emails.
type Mailer interface {
	SendSheetShared(ctx context.Context, to, recipientName, sheetName, senderName string) error
	SendUserCreated(ctx context.Context, to, username, tempPassword string) error
}

// SMTPMailer is a Mailer backed by an SMTP server.
type SMTPMailer struct {
	client      *mail.Client
	from        string
	frontendURL string
}

// Config holds SMTP connection settings.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

// New creates an SMTP-backed Mailer. When no host is configured it returns a
// disabled Mailer that logs and drops every message.
func New(cfg Config) (Mailer, error) {
	if cfg.Host == "" {
		return &disabledMailer{}, nil
	}

	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &SMTPMailer{
		client:      client,
		from:        cfg.From,
		frontendURL: cfg.FrontendURL,
	}, nil
}

// SendSheetShared notifies a user that a sheet has been shared with them.
func (m *SMTPMailer) SendSheetShared(ctx context.Context, to, recipientName, sheetName, senderName string) error {
	subject := fmt.Sprintf("Sheet %q has been shared with you", sheetName)
	body := fmt.Sprintf(`<h2>Sheet Shared</h2>
<p>Hi %s,</p>
<p>%s has shared a sheet with you:</p>
<h3>%s</h3>
<p>Log in to your account to view the sheet.</p>
<a href="%s/login">Open App</a>`, recipientName, senderName, sheetName, m.frontendURL)

	return m.send(ctx, to, subject, body)
}

// SendUserCreated emails initial credentials to a freshly created account.
func (m *SMTPMailer) SendUserCreated(ctx context.Context, to, username, tempPassword string) error {
	subject := "Your account has been created"
	body := fmt.Sprintf(`<h2>Welcome</h2>
<p>Hi %s,</p>
<p>An account has been created for you.</p>
<p><strong>Username:</strong> %s</p>
<p><strong>Temporary password:</strong> %s</p>
<p>Please log in and change your password immediately.</p>
<a href="%s/login">Log In</a>`, username, username, tempPassword, m.frontendURL)

	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	return nil
}

// disabledMailer drops every message. Used when SMTP is not configured.
type disabledMailer struct{}

func (d *disabledMailer) SendSheetShared(_ context.Context, to, _, sheetName, _ string) error {
	slog.Debug("mail disabled, dropping sheet-shared email", "to", to, "sheet", sheetName)
	return nil
}

func (d *disabledMailer) SendUserCreated(_ context.Context, to, _, _ string) error {
	slog.Debug("mail disabled, dropping user-created email", "to", to)
	return nil
}
