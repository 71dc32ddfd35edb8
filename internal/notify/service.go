package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// Deliverer sends a payload to an external endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, payload Payload) error
}

// Config identifies the widget a notification comes from.
type Config struct {
	Company         string
	Version         string
	EmailRecipients []string
}

// Service fans a captured lead out to the webhook and operator email.
type Service struct {
	cfg     Config
	webhook Deliverer
	email   EmailSender
	metrics *metrics.ChatMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService creates a notification service. webhook and email may be nil.
func NewService(cfg Config, webhook Deliverer, email EmailSender, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		cfg:     cfg,
		webhook: webhook,
		email:   email,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// NotifyLead attempts each configured channel once. Failures are logged
// and returned joined; nothing is retried.
func (s *Service) NotifyLead(ctx context.Context, lead leads.Lead) error {
	var errs []error

	if s.webhook != nil {
		start := s.now()
		err := s.webhook.Deliver(ctx, NewPayload(s.cfg.Version, s.cfg.Company, lead, start))
		s.observe("webhook", err, start)
		if err != nil {
			s.logger.Warn("notify: webhook failed", "error", err, "lead_id", lead.ID)
			errs = append(errs, err)
		}
	}

	if s.email != nil && len(s.cfg.EmailRecipients) > 0 {
		msg := s.leadAlert(lead)
		for _, recipient := range s.cfg.EmailRecipients {
			msg.To = recipient
			start := s.now()
			err := s.email.Send(ctx, msg)
			s.observe("email", err, start)
			if err != nil {
				s.logger.Warn("notify: lead alert email failed", "error", err, "to", recipient)
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d delivery failure(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func (s *Service) observe(channel string, err error, start time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveNotification(channel, status, s.now().Sub(start).Seconds())
}

func (s *Service) leadAlert(lead leads.Lead) EmailMessage {
	description := lead.Description
	if description == "" {
		description = "(skipped)"
	}
	hours := ""
	if lead.AfterHours {
		hours = "\nReceived after hours."
	}
	subject := fmt.Sprintf("New estimate request - %s (%s)", lead.Name, lead.Service)
	body := fmt.Sprintf(`New lead from the %s website chat.

Name: %s
Phone: %s
Email: %s
Service: %s
Details: %s
Page: %s%s`, s.cfg.Company, lead.Name, lead.Phone, lead.Email, lead.Service, description, lead.Page, hours)

	rows := [][2]string{
		{"Name", lead.Name},
		{"Phone", lead.Phone},
		{"Email", lead.Email},
		{"Service", lead.Service},
		{"Details", description},
	}
	var table strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&table, `<tr><td style="padding: 8px;"><strong>%s:</strong></td><td style="padding: 8px;">%s</td></tr>`,
			row[0], html.EscapeString(row[1]))
	}
	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New estimate request</h2>
<table style="border-collapse: collapse;">%s</table>
<p style="color: #6b7280; font-size: 12px;">%s website chat</p>
</div>`, table.String(), html.EscapeString(s.cfg.Company))

	msg := EmailMessage{Subject: subject, Text: body, HTML: htmlBody}
	if lead.Email != "" {
		msg.ReplyTo = &Mailbox{Name: lead.Name, Address: lead.Email}
	}
	return msg
}
