package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"eventstaff-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// MailClient is the subset of the SendGrid client used here.
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client    MailClient
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return NewEmailServiceWithClient(sendgrid.NewSendClient(apiKey), fromEmail, fromName)
}

func NewEmailServiceWithClient(client MailClient, fromEmail, fromName string) EmailService {
	return &emailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) Send(ctx context.Context, toEmail, toName, subject, body string) error {
	logger.ExternalServiceCall("sendgrid", "send", "to", toEmail)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, toEmail)
	htmlBody := "<p>" + strings.ReplaceAll(html.EscapeString(body), "\n", "<br>") + "</p>"
	message := mail.NewSingleEmail(from, subject, recipient, body, htmlBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	} else if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
	}

	logger.ExternalServiceResult("sendgrid", "send", err, "to", toEmail)
	return err
}
