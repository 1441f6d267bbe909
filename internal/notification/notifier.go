package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"NetSentry/internal/config"
	"NetSentry/internal/model"
)

// EmailNotifier implements the Notifier interface for sending emails.
type EmailNotifier struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg config.SMTPConfig) model.Notifier {
	// PlainAuth will not send credentials until the server identifies itself as a trusted one.
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	return &EmailNotifier{cfg: cfg, auth: auth}
}

// Send sends an email to the configured recipients.
func (n *EmailNotifier) Send(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	recipients := strings.Split(n.cfg.To, ",")

	msg := []byte("To: " + n.cfg.To + "\r\n" +
		"From: " + n.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body)

	err := smtp.SendMail(addr, n.auth, n.cfg.From, recipients, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// AlertBody renders a batch of newly derived alerts as the HTML email body.
func AlertBody(alerts []model.AlertRecord) string {
	var b strings.Builder
	b.WriteString("<h1>NetSentry Intrusion Alerts</h1>")
	b.WriteString("<p>The following alerts were derived from ingested traffic:</p><hr>")
	for _, a := range alerts {
		fmt.Fprintf(&b, "<p><b>%s</b> from %s (packet %d, confidence %.4f) at %s</p>",
			a.AttackType, a.SrcIP, a.PacketID, a.Confidence, a.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}
