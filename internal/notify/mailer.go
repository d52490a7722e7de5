package notify

import (
	"gopkg.in/gomail.v2"
)

// Mailer sends plain-text mail. The worker depends on this interface so tests
// can record sends instead of talking to an SMTP server.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates an SMTP-backed mailer.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

// Make sure we conform to the interface
var _ Mailer = (*SMTPMailer)(nil)

// Send delivers one message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
