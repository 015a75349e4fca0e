package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/miglee/miglee-backend/config"
)

// SendEmail delivers a plain-text email through the configured SMTP relay.
// Used by the notification email channel.
func SendEmail(cfg *config.Config, to []string, subject, body string) error {
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort
	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)

	msg := emailMessage(cfg.SMTPFromName, cfg.SMTPFromEmail, to, subject, body)
	return smtp.SendMail(addr, auth, cfg.SMTPFromEmail, to, msg)
}

func emailMessage(fromName, fromEmail string, to []string, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		fromName, fromEmail, strings.Join(to, ", "), subject, body,
	))
}
