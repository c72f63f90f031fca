package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// EmailSender delivers one HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (SendResult, error)
}

// SMTPConfig holds mail server settings. From defaults to Username.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != ""
}

type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST not set")
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("SMTP_PORT not set")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := []byte(
		"From: " + s.cfg.From + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	return SendResult{
		MessageID: fmt.Sprintf("smtp-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}

// LogSender writes emails to the log instead of sending them. Used when no
// mail server is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) SendEmail(_ context.Context, to, subject, body string) (SendResult, error) {
	l.logger.Info("Email not sent, SMTP disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return SendResult{MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}
