// Package mail delivers notifications over SMTP or prints them for preview.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"SecretSanta/internal/config"
	"SecretSanta/internal/domain"
	"SecretSanta/internal/infrastructure/render"
	"SecretSanta/internal/ports"
)

const (
	fallbackNote  = "Having trouble viewing this email? Try viewing it in a web browser."
	imageFilename = "santa-email.png"
)

// SMTPMailer sends one message per notification using STARTTLS and PLAIN auth.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	fromName string
	style    string
	timeout  time.Duration
}

var _ ports.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer registers the SMTP account; style is inlined into every HTML part.
func NewSMTPMailer(cfg config.SMTPConfig, fromName, style string) *SMTPMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		fromName: fromName,
		style:    style,
		timeout:  timeout,
	}
}

// Send builds the multipart message and hands it to the SMTP server.
func (m *SMTPMailer) Send(ctx context.Context, n domain.Notification, image []byte) error {
	if m.host == "" || m.username == "" || m.password == "" {
		return fmt.Errorf("smtp mailer misconfigured")
	}

	msg, err := m.buildMessage(n, image)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTimeout(m.timeout),
	)
	if err != nil {
		return fmt.Errorf("new smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", n.To, err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(n domain.Notification, image []byte) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.username); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(n.To); err != nil {
		return nil, fmt.Errorf("to address %s: %w", n.To, err)
	}
	msg.Subject(n.Subject)

	text, err := render.TextHTML(render.Finalize(n.TextBody, m.style))
	if err != nil {
		return nil, fmt.Errorf("text body: %w", err)
	}
	msg.SetBodyString(gomail.TypeTextPlain, fallbackNote)
	msg.AddAlternativeString(gomail.TypeTextHTML, text)

	if len(image) > 0 {
		err := msg.AttachReader(imageFilename, bytes.NewReader(image),
			gomail.WithFileContentType(gomail.ContentType("image/png")))
		if err != nil {
			return nil, fmt.Errorf("attach image: %w", err)
		}
	}

	return msg, nil
}
