package notify

import (
	"bytes"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"foodcourt-system/internal/config"
	"foodcourt-system/internal/models"
)

// Mailer sends order emails over SMTP
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer creates a mailer. Send fails cleanly when credentials are
// missing rather than at dial time.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one email payload, attaching the receipt bytes when
// present.
func (m *Mailer) Send(payload *models.EmailPayload) error {
	if m.cfg.Sender == "" || m.cfg.Password == "" {
		return models.ExternalServiceError{
			Service: "mail",
			Err:     fmt.Errorf("missing SMTP credentials"),
		}
	}

	e := email.NewEmail()
	e.From = m.cfg.Sender
	e.To = []string{payload.To}
	e.Subject = payload.Subject
	e.Text = []byte(payload.BodyText)

	if len(payload.Attachment) > 0 {
		name := payload.Filename
		if name == "" {
			name = "receipt.txt"
		}
		if _, err := e.Attach(bytes.NewReader(payload.Attachment), name, "application/octet-stream"); err != nil {
			return models.ExternalServiceError{Service: "mail", Err: err}
		}
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)

	if err := e.Send(addr, auth); err != nil {
		return models.ExternalServiceError{Service: "mail", Err: err}
	}
	return nil
}
