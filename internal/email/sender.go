// Package email sends account mail through Resend. Handlers depend on the
// Sender interface, so tests and alternative providers swap in without
// touching the HTTP layer.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

type Sender interface {
	// SendConfirmation mails a confirmation link embedding the token to the
	// address.
	SendConfirmation(ctx context.Context, toEmail, token string) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender builds a Sender on the Resend API. fromEmail must belong
// to a domain verified in the Resend dashboard; appURL is the public base
// URL confirmation links point at.
func NewResendSender(apiKey, fromEmail, appURL string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendConfirmation(ctx context.Context, toEmail, token string) error {
	confirmLink := fmt.Sprintf("%s/api/v1/email/confirm/%s", s.appURL, token)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;">
  <h2 style="margin:0 0 16px 0;">Confirm your email</h2>
  <p style="margin:0 0 24px 0;color:#333;">
    Click the link below to confirm this address for your contact book account.
    The link is valid for 24 hours.
  </p>
  <p style="margin:0 0 24px 0;">
    <a href="%s" style="color:#2563eb;">Confirm email</a>
  </p>
  <p style="margin:0;color:#777;font-size:13px;">
    If you did not create an account, you can ignore this message.
  </p>
</body>
</html>`, confirmLink)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("contactio <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: "Email confirmation",
		Html:    html,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}
