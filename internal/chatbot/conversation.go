package chatbot

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/acegrowth/ace-chatbot/internal/chatflow"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/presenter"
	"github.com/acegrowth/ace-chatbot/internal/widget"
)

// Conversation is one visitor's run through the script. Methods are safe
// for concurrent use; each call is applied atomically.
type Conversation struct {
	id       string
	renderer presenter.Renderer

	mu      sync.Mutex
	machine *chatflow.Machine
}

func newConversation(opts widget.Options, sink chatflow.LeadSink, meta leads.ClientMeta, w *Widget) *Conversation {
	return &Conversation{
		id:       uuid.NewString(),
		renderer: presenter.Renderer{Typing: w.typing},
		machine: chatflow.NewMachine(opts, sink,
			chatflow.WithClientMeta(meta),
			chatflow.WithClock(w.now),
			chatflow.WithMetrics(w.metrics),
			chatflow.WithLogger(w.logger),
		),
	}
}

// ID identifies the conversation for logs and session lookup.
func (c *Conversation) ID() string { return c.id }

// Start returns the greeting timeline. Only the first call produces frames.
func (c *Conversation) Start(ctx context.Context) presenter.Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	tl := c.renderer.Render(c.machine.Start(ctx))
	if c.renderer.Typing {
		tl = tl.Delayed(presenter.GreetingDelay)
	}
	return tl
}

// Send submits typed text.
func (c *Conversation) Send(ctx context.Context, text string) presenter.Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Render(c.machine.Send(ctx, text))
}

// Choose presses an offered button.
func (c *Conversation) Choose(ctx context.Context, id string) presenter.Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Render(c.machine.Choose(ctx, id))
}

// Open shows the chat window. It reports whether anything changed.
func (c *Conversation) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.SetOpen(true)
}

// Close hides the chat window without touching the conversation.
func (c *Conversation) Close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.SetOpen(false)
}

// State returns a snapshot of the conversation.
func (c *Conversation) State() chatflow.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Lead returns the captured lead once the conversation has completed.
func (c *Conversation) Lead() (leads.Lead, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Lead()
}
