package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/believe-consult/backend/config"
)

// Sender delivers a single message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// SMTPSender sends mail over SMTP with PLAIN auth.
type SMTPSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender creates an SMTP sender from config.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers one HTML message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, bodyHTML string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp not configured (SMTP_HOST)")
	}
	client, err := mail.NewClient(s.cfg.SMTPHost,
		mail.WithPort(s.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.SMTPUser),
		mail.WithPassword(s.cfg.SMTPPass),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, bodyHTML)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
