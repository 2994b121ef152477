package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// Email defaults for Gmail over implicit TLS.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 465
)

// EmailConfig holds SMTP account settings.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	To       string
	Subject  string
}

// Email sends the message over SMTP with implicit TLS.
type Email struct {
	cfg  EmailConfig
	opts []mail.Option
}

// NewEmail returns an email sink. Extra client options are applied after the defaults.
func NewEmail(cfg EmailConfig, opts ...mail.Option) *Email {
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.To = strings.TrimSpace(cfg.To)
	if cfg.Host == "" {
		cfg.Host = DefaultSMTPHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	return &Email{cfg: cfg, opts: opts}
}

// Name implements Sink.
func (e *Email) Name() string { return "email" }

// Configured reports whether sender, password and recipient are set.
func (e *Email) Configured() bool {
	return e.cfg.From != "" && e.cfg.Password != "" && e.cfg.To != ""
}

// Compose builds the message without sending it.
func (e *Email) Compose(body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(e.cfg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(e.cfg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

// Send implements Sink.
func (e *Email) Send(ctx context.Context, body string) error {
	if !e.Configured() {
		return ErrNotConfigured
	}
	m, err := e.Compose(body)
	if err != nil {
		return err
	}

	opts := append([]mail.Option{
		mail.WithPort(e.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.From),
		mail.WithPassword(e.cfg.Password),
		mail.WithTimeout(DefaultTimeout),
	}, e.opts...)
	client, err := mail.NewClient(e.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
