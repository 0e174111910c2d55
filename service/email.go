package service

import (
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends account mail over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	sender string
}

// NewMailer configures an SMTP dialer. TLS is mandatory; credentials come
// from process-level config, never from user records.
func NewMailer(host string, port int, username, password, sender string) *Mailer {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return &Mailer{dialer: d, sender: sender}
}

// SendPasswordReset mails the reset link to the account's address.
func (m *Mailer) SendPasswordReset(to, link string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your flickvault password")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Click the link below to reset your password. The link is valid for a limited time and can be used once.</p><p><a href="%s">%s</a></p>`,
		link, link))
	return m.dialer.DialAndSend(msg)
}

// SendConfirmation mails the account-activation link after sign-up.
func (m *Mailer) SendConfirmation(to, link string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Confirm your flickvault account")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Welcome to flickvault. Confirm your email address to activate your account:</p><p><a href="%s">%s</a></p>`,
		link, link))
	return m.dialer.DialAndSend(msg)
}
