package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storagify/file-api/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

type Mail struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// NewMailer returns an SMTP mailer or a no-op one when mail isn't configured
func NewMailer(cfg config.Mail) Mailer {
	if !cfg.Enabled() {
		return NopMailer{}
	}

	return NewSMTPMailer(cfg)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
	from   string
}

func NewSMTPMailer(cfg config.Mail) *SMTPMailer {
	m := gomail.NewMessage()

	from := cfg.Sender
	if cfg.SenderName != "" {
		from = m.FormatAddress(cfg.Sender, cfg.SenderName)
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender: cfg.Sender,
		from:   from,
	}
}

// Send delivers m and gives up waiting once ctx is done. gomail has no
// context support so the dial itself may outlive ctx.
func (s *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if mail.To == "" || strings.EqualFold(mail.To, s.sender) {
		return ErrInvalidRecipient
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", mail.Subject)
	m.SetBody("text/html", mail.HTML)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail, %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send mail, %w", ctx.Err())
	}
}

// NopMailer drops every mail
type NopMailer struct{}

func (NopMailer) Send(_ context.Context, m Mail) error {
	zap.L().Debug("Mail not configured, skipping", zap.String("subject", m.Subject))
	return nil
}
