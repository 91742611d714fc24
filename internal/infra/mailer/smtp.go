// Package mailer provides email transports for the Dispatcher.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/textproto"
	"strings"
	"time"

	gomail "gopkg.in/mail.v2"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/usecase/dispatch"
)

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// Timeout bounds dialing and each SMTP command.
	Timeout time.Duration
}

// DefaultSMTPConfig returns Gmail submission settings for username.
func DefaultSMTPConfig(username, password string) SMTPConfig {
	return SMTPConfig{
		Host:     "smtp.gmail.com",
		Port:     587,
		Username: username,
		Password: password,
		Timeout:  30 * time.Second,
	}
}

// sender is the part of *gomail.Dialer used by SMTPTransport.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport delivers messages over SMTP with mandatory STARTTLS.
type SMTPTransport struct {
	dialer sender
	host   string
}

// NewSMTPTransport creates a transport for cfg. The connection is upgraded with
// STARTTLS before authentication; servers without STARTTLS are refused.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = gomail.MandatoryStartTLS
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return &SMTPTransport{dialer: d, host: cfg.Host}
}

// Send implements dispatch.Transport. Credential rejections are reported as
// entity.ErrAuthentication.
func (t *SMTPTransport) Send(ctx context.Context, msg *dispatch.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := buildMessage(msg)
	start := time.Now()

	done := make(chan error, 1)
	go func() { done <- t.dialer.DialAndSend(m) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	logger := logging.FromContext(ctx)
	if err != nil {
		err = classify(err)
		logger.Warn("smtp send failed",
			slog.String("host", t.host),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return fmt.Errorf("smtp %s: %w", t.host, err)
	}

	logger.Info("smtp message accepted",
		slog.String("host", t.host),
		slog.String("subject", msg.Subject),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// buildMessage creates a multipart/alternative message with a plain text part
// followed by the HTML part.
func buildMessage(msg *dispatch.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}

// authReplyCodes are SMTP replies that reject the client's credentials:
// 530 authentication required, 534 mechanism too weak (Gmail: app password needed),
// 535 credentials invalid.
var authReplyCodes = map[int]bool{530: true, 534: true, 535: true}

// classify marks credential rejections with entity.ErrAuthentication.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && authReplyCodes[tpErr.Code] {
		return fmt.Errorf("%w: %w", entity.ErrAuthentication, err)
	}
	// Some servers' replies only survive as text.
	msg := err.Error()
	for code := range authReplyCodes {
		if strings.HasPrefix(msg, fmt.Sprintf("%d ", code)) {
			return fmt.Errorf("%w: %w", entity.ErrAuthentication, err)
		}
	}
	return err
}
