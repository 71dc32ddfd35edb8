package notify

import (
	"context"
	"sync"
	"time"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// LeadNotifier delivers one lead.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead leads.Lead) error
}

// Dispatcher runs lead notifications on background workers. Callers never
// wait for, or learn about, the outcome of a delivery.
type Dispatcher struct {
	notifier LeadNotifier
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan leads.Lead
	wg     sync.WaitGroup
}

type dispatcherConfig struct {
	workers int
	buffer  int
	timeout time.Duration
	metrics *metrics.ChatMetrics
}

// DispatcherOption customizes the dispatcher.
type DispatcherOption func(*dispatcherConfig)

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize sets how many leads may wait for a worker.
func WithQueueSize(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithDeliveryTimeout bounds each delivery.
func WithDeliveryTimeout(d time.Duration) DispatcherOption {
	return func(c *dispatcherConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDispatcherMetrics records dropped notifications.
func WithDispatcherMetrics(m *metrics.ChatMetrics) DispatcherOption {
	return func(c *dispatcherConfig) {
		c.metrics = m
	}
}

// NewDispatcher starts the workers immediately.
func NewDispatcher(notifier LeadNotifier, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	cfg := dispatcherConfig{workers: 2, buffer: 64, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		metrics:  cfg.metrics,
		timeout:  cfg.timeout,
		jobs:     make(chan leads.Lead, cfg.buffer),
	}
	for i := 0; i < cfg.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Enqueue hands lead to a worker without blocking. It reports false when
// the lead was dropped because the queue is full or the dispatcher closed.
func (d *Dispatcher) Enqueue(lead leads.Lead) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notify: dispatcher closed, dropping lead notification", "lead_id", lead.ID)
		d.metrics.ObserveNotification("dispatch", "dropped", 0)
		return false
	}
	select {
	case d.jobs <- lead:
		return true
	default:
		d.logger.Warn("notify: queue full, dropping lead notification", "lead_id", lead.ID)
		d.metrics.ObserveNotification("dispatch", "dropped", 0)
		return false
	}
}

// Close stops accepting leads and waits for queued deliveries to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for lead := range d.jobs {
		d.deliver(lead)
	}
}

func (d *Dispatcher) deliver(lead leads.Lead) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notify: delivery panicked", "panic", r, "lead_id", lead.ID)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.notifier.NotifyLead(ctx, lead); err != nil {
		d.logger.Warn("notify: lead notification failed", "error", err, "lead_id", lead.ID)
	}
}
