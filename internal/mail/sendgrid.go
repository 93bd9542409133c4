// Package mail implements the outbound email collaborator used for
// verification codes and password-reset tokens.
package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends plain-text email through the SendGrid API.
type SendGridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSendGridMailer builds a mailer with the given API key and sender
// identity.
func NewSendGridMailer(apiKey, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers one message. Any non-2xx response from SendGrid is reported
// as an error so the caller can surface a delivery failure.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	from := sgmail.NewEmail(m.fromName, m.fromEmail)
	recipient := sgmail.NewEmail("", to)
	msg := sgmail.NewSingleEmail(from, subject, recipient, body, "")

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
