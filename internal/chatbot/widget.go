// Package chatbot is the embeddable lead-capture widget: one mounted
// configuration, any number of visitor conversations, and the lead list
// they produce.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/acegrowth/ace-chatbot/internal/chatflow"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// Version is reported in notification payloads and /chat/config.
const Version = "1.0.0"

var (
	// ErrAlreadyInitialized is returned by a second Initialize. The first
	// mount stays in effect.
	ErrAlreadyInitialized = errors.New("chatbot: widget already initialized")

	// ErrNotInitialized is returned when a conversation is requested
	// before Initialize.
	ErrNotInitialized = errors.New("chatbot: widget not initialized")
)

// Widget owns the mounted options and the lead store.
type Widget struct {
	store   leads.Store
	sink    chatflow.LeadSink
	metrics *metrics.ChatMetrics
	logger  *logging.Logger
	now     func() time.Time
	typing  bool

	mu      sync.RWMutex
	options *widget.Options
}

// Option configures a Widget.
type Option func(*Widget)

// WithTyping toggles typing indicators and message pacing.
func WithTyping(enabled bool) Option {
	return func(w *Widget) { w.typing = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(w *Widget) {
		if now != nil {
			w.now = now
		}
	}
}

func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(w *Widget) { w.metrics = m }
}

func WithLogger(logger *logging.Logger) Option {
	return func(w *Widget) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates an unmounted widget. sink receives completed leads; store
// backs ListLeads and ClearLeads.
func New(store leads.Store, sink chatflow.LeadSink, opts ...Option) *Widget {
	w := &Widget{
		store:  store,
		sink:   sink,
		logger: logging.Default(),
		now:    time.Now,
		typing: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Initialize merges overrides over the defaults and mounts the widget.
func (w *Widget) Initialize(overrides widget.Overrides) (widget.Options, error) {
	resolved := overrides.Merge(widget.Defaults())
	if err := resolved.Validate(); err != nil {
		return widget.Options{}, fmt.Errorf("chatbot: initialize: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.options != nil {
		w.logger.Warn("chatbot: initialize called twice; keeping first mount")
		return w.options.Clone(), ErrAlreadyInitialized
	}
	w.options = &resolved

	w.logger.Info("chatbot: widget initialized",
		"version", Version,
		"company", resolved.CompanyName,
		"services", len(resolved.Services),
		"webhook", resolved.WebhookURL != "",
	)
	return resolved.Clone(), nil
}

// Initialized reports whether Initialize has succeeded.
func (w *Widget) Initialized() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.options != nil
}

// Options returns the mounted options.
func (w *Widget) Options() (widget.Options, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.options == nil {
		return widget.Options{}, ErrNotInitialized
	}
	return w.options.Clone(), nil
}

// NewConversation starts a fresh conversation for one page view.
func (w *Widget) NewConversation(meta leads.ClientMeta) (*Conversation, error) {
	opts, err := w.Options()
	if err != nil {
		return nil, err
	}
	return newConversation(opts, w.sink, meta, w), nil
}

// ListLeads returns every stored lead, oldest first. A store failure is
// logged and yields an empty list.
func (w *Widget) ListLeads(ctx context.Context) []leads.Lead {
	if w.store == nil {
		return []leads.Lead{}
	}
	all, err := w.store.List(ctx)
	if err != nil {
		w.logger.Warn("chatbot: list leads failed", "error", err)
		return []leads.Lead{}
	}
	if all == nil {
		all = []leads.Lead{}
	}
	return all
}

// ClearLeads empties the lead store.
func (w *Widget) ClearLeads(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	if err := w.store.Clear(ctx); err != nil {
		return fmt.Errorf("chatbot: clear leads: %w", err)
	}
	w.logger.Info("chatbot: leads cleared")
	return nil
}
