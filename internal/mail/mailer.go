package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/meridianhq/portal-backend/internal/config"
	"go.uber.org/zap"
)

// Attachment is an optional binary part of an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Mailer interface {
	Send(to, subject, htmlBody string, attachment *Attachment) error
}

type smtpMailer struct {
	host   string
	port   string
	user   string
	pass   string
	sender string
}

func NewSMTPMailer(cfg *config.Config) Mailer {
	sender := cfg.SMTPSender
	if sender == "" {
		sender = "no-reply@localhost"
		zap.L().Warn("SMTP_SENDER not set, using default sender", zap.String("sender", sender))
	}
	return &smtpMailer{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		user:   cfg.SMTPUser,
		pass:   cfg.SMTPPass,
		sender: sender,
	}
}

func (m *smtpMailer) Send(to, subject, htmlBody string, attachment *Attachment) error {
	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	msg, err := buildMessage(m.sender, to, subject, htmlBody, attachment)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if err := smtp.SendMail(addr, auth, m.sender, []string{to}, msg); err != nil {
		zap.L().Error("SMTP send error", zap.String("to", to), zap.Error(err))
		return err
	}
	zap.L().Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// buildMessage assembles an HTML message, wrapping it in multipart/mixed
// when an attachment is present.
func buildMessage(from, to, subject, htmlBody string, attachment *Attachment) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n", from, to, subject)

	if attachment == nil {
		buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		buf.WriteString(htmlBody)
		return buf.Bytes(), nil
	}

	w := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	htmlPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	attPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {attachment.ContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", attachment.Filename)},
	})
	if err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(attachment.Data)
	if _, err := attPart.Write([]byte(enc)); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
