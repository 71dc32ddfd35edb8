package notify

import (
	"context"
	"fmt"
	netmail "net/mail"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// alertCategory tags lead alerts in the provider's activity feed.
const alertCategory = "lead-alert"

const defaultSenderName = "Ace Chatbot"

// EmailSender delivers one lead alert to one operator.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Mailbox is a display name and address.
type Mailbox struct {
	Name    string
	Address string
}

// String formats the mailbox for a header, encoding non-ASCII names.
func (m Mailbox) String() string {
	return (&netmail.Address{Name: m.Name, Address: m.Address}).String()
}

func senderMailbox(from Mailbox) Mailbox {
	if from.Name == "" {
		from.Name = defaultSenderName
	}
	return from
}

// EmailMessage is a rendered lead alert addressed to one operator.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
	// ReplyTo is the visitor, so answering the alert reaches the lead.
	ReplyTo *Mailbox
}

// SendGridSender delivers lead alerts through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   Mailbox
	logger *logging.Logger
}

// NewSendGridSender returns nil unless both an API key and a from address
// are configured.
func NewSendGridSender(apiKey string, from Mailbox, logger *logging.Logger) *SendGridSender {
	if apiKey == "" || from.Address == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   senderMailbox(from),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	response, err := s.client.SendWithContext(ctx, sendGridMessage(s.from, msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("lead alert sent via sendgrid", "to", msg.To, "status", response.StatusCode)
	return nil
}

func sendGridMessage(from Mailbox, msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(from.Name, from.Address))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)

	// SendGrid requires text/plain ahead of text/html.
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	if msg.ReplyTo != nil && msg.ReplyTo.Address != "" {
		m.SetReplyTo(mail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Address))
	}
	m.AddCategories(alertCategory)
	return m
}

// StubEmailSender logs lead alerts instead of sending them.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	replyTo := ""
	if msg.ReplyTo != nil {
		replyTo = msg.ReplyTo.String()
	}
	s.logger.Info("lead alert email not sent (no provider)", "to", msg.To, "subject", msg.Subject, "reply_to", replyTo)
	return nil
}
