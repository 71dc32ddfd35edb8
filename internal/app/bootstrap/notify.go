package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/acegrowth/ace-chatbot/internal/capture"
	appconfig "github.com/acegrowth/ace-chatbot/internal/config"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/notify"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// BuildNotifier wires the webhook and lead alert email channels behind a
// background dispatcher. It returns nil when no channel is configured.
func BuildNotifier(ctx context.Context, cfg *appconfig.Config, opts widget.Options, version string, m *metrics.ChatMetrics, logger *logging.Logger) *notify.Dispatcher {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var webhook notify.Deliverer
	if endpoint := strings.TrimSpace(opts.WebhookURL); endpoint != "" {
		webhook = notify.NewWebhookNotifier(endpoint,
			notify.WithHTTPClient(&http.Client{Timeout: timeout}),
			notify.WithWebhookLogger(logger.WithComponent("webhook")),
		)
	}

	var email notify.EmailSender
	if len(cfg.LeadAlertEmails) > 0 {
		email = buildEmailSender(ctx, cfg, logger)
	}

	if webhook == nil && email == nil {
		logger.Info("no lead notification channel configured")
		return nil
	}

	service := notify.NewService(notify.Config{
		Company:         opts.CompanyName,
		Version:         version,
		EmailRecipients: cfg.LeadAlertEmails,
	}, webhook, email, m, logger.WithComponent("notify"))

	logger.Info("lead notifications enabled",
		"webhook", webhook != nil,
		"email_recipients", len(cfg.LeadAlertEmails),
		"workers", cfg.NotifyWorkers,
	)
	return notify.NewDispatcher(service, logger.WithComponent("dispatcher"),
		notify.WithWorkers(cfg.NotifyWorkers),
		notify.WithQueueSize(cfg.NotifyQueueSize),
		notify.WithDeliveryTimeout(timeout+5*time.Second),
		notify.WithDispatcherMetrics(m),
	)
}

// BuildCapture returns the conversation lead sink. A nil dispatcher leaves
// the sink storing leads without notifying anyone.
func BuildCapture(store leads.Store, dispatcher *notify.Dispatcher, m *metrics.ChatMetrics, logger *logging.Logger) *capture.Service {
	var enqueuer capture.Enqueuer
	if dispatcher != nil {
		enqueuer = dispatcher
	}
	return capture.NewService(store, enqueuer, m, logger)
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	from := notify.Mailbox{
		Name:    cfg.SendGridFromName,
		Address: strings.TrimSpace(cfg.SendGridFromEmail),
	}

	if cfg.EmailProvider == "ses" {
		if from.Address == "" {
			logger.Warn("SENDGRID_FROM_EMAIL not set; SES lead alert email disabled")
			return nil
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config; lead alert email disabled", "error", err)
			return nil
		}
		logger.Info("lead alert email via SES", "region", cfg.AWSRegion)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger.WithComponent("ses"))
	}

	if sender := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger); sender != nil {
		return sender
	}
	if !cfg.IsProduction() {
		logger.Info("SendGrid not configured; lead alerts will be logged only")
		return notify.NewStubEmailSender(logger)
	}
	logger.Warn("lead alert recipients configured without SENDGRID_API_KEY and SENDGRID_FROM_EMAIL; email disabled")
	return nil
}
