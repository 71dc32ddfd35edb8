package chatflow

import (
	"context"
	"strings"
	"time"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/observability/metrics"
	"github.com/acegrowth/ace-chatbot/internal/widget"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

const (
	SenderBot  = "bot"
	SenderUser = "user"
)

// Message is one line of the visible transcript.
type Message struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	HTML   bool      `json:"html,omitempty"`
	Time   time.Time `json:"time"`
}

// State is everything one conversation remembers. It is never reset.
type State struct {
	Step      Step      `json:"step"`
	Data      Data      `json:"data"`
	Messages  []Message `json:"messages"`
	Offered   []Button  `json:"offered,omitempty"`
	Open      bool      `json:"open"`
	Submitted bool      `json:"submitted"`
}

// LeadSink receives the lead built on the terminal step. Submit must not
// block on delivery.
type LeadSink interface {
	Submit(ctx context.Context, lead leads.Lead)
}

// Machine drives one conversation. It is not safe for concurrent use;
// callers serialize Start, Send and Choose.
type Machine struct {
	opts    widget.Options
	sink    LeadSink
	meta    leads.ClientMeta
	now     func() time.Time
	metrics *metrics.ChatMetrics
	logger  *logging.Logger

	state   State
	started bool
	lead    *leads.Lead
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithClientMeta attaches page attribution to the captured lead.
func WithClientMeta(meta leads.ClientMeta) Option {
	return func(m *Machine) { m.meta = meta }
}

func WithMetrics(cm *metrics.ChatMetrics) Option {
	return func(m *Machine) { m.metrics = cm }
}

func WithLogger(logger *logging.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMachine creates a conversation positioned at the greeting.
func NewMachine(opts widget.Options, sink LeadSink, options ...Option) *Machine {
	m := &Machine{
		opts:   opts.Clone(),
		sink:   sink,
		now:    time.Now,
		logger: logging.Default(),
		state:  State{Step: StepGreeting},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Start emits the greeting. Later calls return nil.
func (m *Machine) Start(ctx context.Context) []Effect {
	if m.started {
		return nil
	}
	m.started = true
	m.metrics.ObserveConversationStarted()

	effects := Greet(m.flowContext())
	m.apply(ctx, Outcome{Next: StepGreeting, Data: m.state.Data, Effects: effects}, m.flowContext())
	return effects
}

// Send feeds typed text. Blank text, and text the current step does not
// read, produce no effects.
func (m *Machine) Send(ctx context.Context, text string) []Effect {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	fc := m.flowContext()
	out := Transition(m.state.Step, m.state.Data, Text(text), fc)
	if out.Ignored {
		return nil
	}
	m.record(SenderUser, text, false)
	m.apply(ctx, out, fc)
	return out.Effects
}

// Choose presses an offered button. Ids that are not currently offered
// are ignored.
func (m *Machine) Choose(ctx context.Context, id string) []Effect {
	button, ok := m.offered(id)
	if !ok {
		return nil
	}
	fc := m.flowContext()
	out := Transition(m.state.Step, m.state.Data, Choice(id), fc)
	if out.Ignored {
		return nil
	}
	// Other only swaps the grid for a text prompt; it is not an answer.
	if id != ChoiceOther {
		m.record(SenderUser, button.Label, false)
	}
	m.apply(ctx, out, fc)
	return out.Effects
}

// SetOpen updates the open flag and reports whether it changed.
func (m *Machine) SetOpen(open bool) bool {
	if m.state.Open == open {
		return false
	}
	m.state.Open = open
	return true
}

// State returns a copy of the conversation state.
func (m *Machine) State() State {
	s := m.state
	s.Messages = append([]Message(nil), m.state.Messages...)
	s.Offered = append([]Button(nil), m.state.Offered...)
	return s
}

// Step is the current step.
func (m *Machine) Step() Step { return m.state.Step }

// Lead returns the submitted lead, if any.
func (m *Machine) Lead() (leads.Lead, bool) {
	if m.lead == nil {
		return leads.Lead{}, false
	}
	return *m.lead, true
}

// Options returns the widget options the conversation runs with.
func (m *Machine) Options() widget.Options { return m.opts.Clone() }

func (m *Machine) flowContext() Context {
	return Context{Options: m.opts, AfterHours: m.opts.IsAfterHours(m.now())}
}

func (m *Machine) apply(ctx context.Context, out Outcome, fc Context) {
	prev := m.state.Step
	m.state.Step = out.Next
	m.state.Data = out.Data
	m.state.Offered = nil

	for _, e := range out.Effects {
		switch e := e.(type) {
		case Say:
			m.record(SenderBot, e.Text, e.HTML)
		case Buttons:
			m.state.Offered = append([]Button(nil), e.Buttons...)
		case Submit:
			m.submit(ctx, fc.AfterHours)
		}
	}

	switch {
	case out.Rejected:
		m.metrics.ObserveRejection(prev.String())
	case out.Next != prev:
		m.metrics.ObserveTransition(out.Next.String())
	}
}

func (m *Machine) submit(ctx context.Context, afterHours bool) {
	if m.state.Submitted {
		return
	}
	lead, err := leads.New(m.state.Data.Fields(), m.meta, m.now(), afterHours)
	if err != nil {
		m.logger.Error("chatflow: cannot build lead", "error", err)
		return
	}
	m.state.Submitted = true
	m.lead = &lead
	if m.sink != nil {
		m.sink.Submit(ctx, lead)
	}
}

func (m *Machine) record(sender, text string, html bool) {
	m.state.Messages = append(m.state.Messages, Message{
		Sender: sender,
		Text:   text,
		HTML:   html,
		Time:   m.now().UTC(),
	})
}

func (m *Machine) offered(id string) (Button, bool) {
	for _, b := range m.state.Offered {
		if b.ID == id {
			return b, true
		}
	}
	return Button{}, false
}
