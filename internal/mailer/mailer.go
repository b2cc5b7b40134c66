// Package mailer delivers high-priority alert notifications over SMTP.
// Delivery is strictly best-effort: the notification record is the source
// of truth, mail is a side channel.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"moneta/internal/config"
)

// Mailer sends alert emails through a configured SMTP server.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer from the application configuration, or nil when
// SMTP is not configured.
func New(cfg *config.Config) *Mailer {
	if !cfg.MailEnabled() {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

// SendAlert sends a plain alert email.
func (m *Mailer) SendAlert(to, subject, message string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", fmt.Sprintf(
		"<html><body><p>%s</p><p>— Moneta</p></body></html>", message))

	return m.dialer.DialAndSend(msg)
}
