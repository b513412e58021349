package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/lumberhaus/storefront-backend/config"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

// Sender delivers a single message. Failures are returned to the caller and
// never retried.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpSender struct {
	cfg      config.SMTPConfig
	sendMail sendMailFunc
}

// NewSender returns an SMTP sender, or a log-only sender when SMTP
// credentials are not configured.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.Configured() {
		logger.Warn("SMTP is not configured, emails will only be logged", nil)
		return NewLogSender()
	}
	return &smtpSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *smtpSender) Send(ctx context.Context, to string, msg Message) error {
	if err := validateAddress(to); err != nil {
		return err
	}
	subject, body, err := Render(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.cfg.From, to, subject, body,
	))

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := s.sendMail(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.From, []string{to}, raw); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"type": string(msg.Kind),
			"to":   to,
		})
		return fmt.Errorf("send %s email: %w", msg.Kind, err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"type": string(msg.Kind),
		"to":   to,
	})
	return nil
}

type logSender struct{}

func NewLogSender() Sender { return logSender{} }

func (logSender) Send(_ context.Context, to string, msg Message) error {
	if err := validateAddress(to); err != nil {
		return err
	}
	subject, _, err := Render(msg)
	if err != nil {
		return err
	}
	logger.Info("[DEV MODE] Email not sent", map[string]interface{}{
		"type":    string(msg.Kind),
		"to":      to,
		"subject": subject,
	})
	return nil
}
