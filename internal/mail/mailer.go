package mail

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"coursebook/internal/config"
)

// Mailer sends HTML mail. Services depend on the interface so tests can
// substitute a mock.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer builds a mailer from SMTP config. Returns an error when the
// relay is not configured so callers fail at startup, not at first send.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("smtp host not configured")
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}
	return &SMTPMailer{dialer: dialer, from: from}, nil
}

// LogMailer writes mail to the process log instead of sending it. Used in
// development when no SMTP relay is configured.
type LogMailer struct{}

var _ Mailer = (*LogMailer)(nil)

func (m *LogMailer) Send(to, subject, htmlBody string) error {
	log.Printf("mail (not sent, no SMTP relay): to=%s subject=%q", to, subject)
	return nil
}

// Send verifies SMTP connectivity before sending to avoid partial-send
// ambiguity, then delivers the message.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	closer, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp connect: %w", err)
	}
	defer closer.Close()

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := gomail.Send(closer, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
