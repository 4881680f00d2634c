package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"taskboard/backend/internal/config"
)

// Mailer is the delivery boundary; handlers and workers never talk SMTP.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return nil
}

func ResetMessage(baseURL, rawToken string) (subject, body string) {
	subject = "Your password reset token (valid for 10 minutes)"
	body = fmt.Sprintf("Your password reset token is: %s/api/v1/auth/resetPassword/%s", baseURL, rawToken)
	return subject, body
}

func ReminderMessage(title string, due string) (subject, body string) {
	subject = fmt.Sprintf("Task due soon: %s", title)
	body = fmt.Sprintf("Your task %q is due at %s.", title, due)
	return subject, body
}
