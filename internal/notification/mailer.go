package notification

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"etickets/internal/config"
	"etickets/internal/logger"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTP sender, or a LogSender when no SMTP host is set.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if cfg.SMTPHost == "" {
		log.Warn("EMAIL", "SMTP_HOST not set, emails will only be logged")
		return &LogSender{Logger: log}
	}
	return &SMTPSender{cfg: cfg}
}

type SMTPSender struct {
	cfg config.EmailConfig
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	mail := mailyak.New(net.JoinHostPort(s.cfg.SMTPHost, s.cfg.SMTPPort), auth)
	mail.To(msg.To)
	mail.From(s.cfg.From)
	mail.FromName(s.cfg.FromName)
	mail.Subject(msg.Subject)
	mail.HTML().Set(msg.HTML)
	for _, a := range msg.Attachments {
		mail.AttachWithMimeType(a.Name, bytes.NewReader(a.Data), a.ContentType)
	}

	if err := mail.Send(); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender records messages instead of delivering them.
type LogSender struct {
	Logger *logger.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Name)
	}
	s.Logger.LogEmail("DRY-RUN", msg.To, fmt.Sprintf("%q attachments=%v", msg.Subject, names))
	return nil
}
