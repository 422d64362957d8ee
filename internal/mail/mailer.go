// Package mail wraps SMTP delivery behind a small Sender interface so the
// notification service can be tested without a mail server.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Message is one plaintext mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a Sender that delivers via the configured SMTP relay.
func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	opts := []gomail.Option{gomail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

type noopSender struct{}

// NewNoopSender creates a Sender that silently drops mail. Used when no SMTP
// relay is configured.
func NewNoopSender() Sender {
	return noopSender{}
}

func (noopSender) Send(ctx context.Context, msg Message) error {
	return nil
}
