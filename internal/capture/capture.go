// Package capture hands a completed lead to storage and notification.
// Neither side can fail the conversation: errors are logged and dropped.
package capture

import (
	"context"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// Enqueuer schedules a lead notification without waiting for it.
type Enqueuer interface {
	Enqueue(lead leads.Lead) bool
}

// Service is the terminal-step sink of a conversation.
type Service struct {
	store    leads.Store
	notifier Enqueuer
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

// NewService wires the sink. notifier may be nil when no notification
// channel is configured.
func NewService(store leads.Store, notifier Enqueuer, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Submit persists and dispatches lead. It never returns an error.
func (s *Service) Submit(ctx context.Context, lead leads.Lead) {
	s.metrics.ObserveLeadCaptured(lead.AfterHours)

	if s.store != nil {
		if err := s.store.Append(ctx, lead); err != nil {
			s.metrics.ObserveStoreFailure()
			s.logger.Warn("capture: lead store append failed", "error", err, "lead_id", lead.ID)
		}
	}

	if s.notifier != nil {
		s.notifier.Enqueue(lead)
	}

	s.logger.Info("capture: lead submitted",
		"lead_id", lead.ID,
		"service", lead.Service,
		"after_hours", lead.AfterHours,
	)
}
