package integrations

import (
	"context"
	"fmt"

	mail "gopkg.in/mail.v2"
)

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends plain-text mail over SMTP. Without a host every send is dropped.
type Mailer struct {
	cfg    MailConfig
	dialer *mail.Dialer
}

func NewMailer(cfg MailConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" {
		m.dialer = mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

func (m *Mailer) Enabled() bool { return m != nil && m.dialer != nil }

func (m *Mailer) Message(to, subject, body string) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(m.Message(to, subject, body)) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
