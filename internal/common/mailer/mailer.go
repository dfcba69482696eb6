// Package mailer sends mail over SMTP. It is the notification fallback when SES is off.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

var ErrNotConfigured = errors.New("smtp not configured")

// Config mirrors the smtp section of the application config.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
}

// Dialer is what mail.Dialer provides; tests substitute it.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Mailer struct {
	dialer Dialer
	from   string
}

func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, ErrNotConfigured
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	d := mail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}

	return NewWithDialer(d, cfg.From), nil
}

func NewWithDialer(d Dialer, from string) *Mailer {
	return &Mailer{dialer: d, from: from}
}

// Send builds and delivers msg. The dial itself cannot be cancelled, so ctx is only checked up front.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *Mailer) build(msg Message) *mail.Message {
	out := mail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To...)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		out.AddAlternative("text/html", msg.HTML)
	}
	return out
}
