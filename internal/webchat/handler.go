package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/acegrowth/ace-chatbot/internal/chatbot"
	"github.com/acegrowth/ace-chatbot/internal/chatflow"
	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/presenter"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// DefaultIdleTimeout is how long a session survives without any event.
const DefaultIdleTimeout = 30 * time.Minute

// Handler serves the chat widget over WebSocket with an HTTP fallback.
type Handler struct {
	widget      *chatbot.Widget
	scheduler   presenter.Scheduler
	logger      *logging.Logger
	widgetJS    []byte
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type   string `json:"type"` // "message", "choice", "open", "close", "ping"
	Text   string `json:"text"`
	Choice string `json:"choice"`
}

// ExchangeResponse answers an HTTP fallback request.
type ExchangeResponse struct {
	SessionID string            `json:"session_id"`
	Step      string            `json:"step"`
	Frames    []presenter.Frame `json:"frames"`
}

// HistoryResponse is returned by HandleHistory.
type HistoryResponse struct {
	SessionID string             `json:"session_id"`
	Step      string             `json:"step"`
	Messages  []chatflow.Message `json:"messages"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithScheduler sets how WebSocket timelines are paced.
func WithScheduler(s presenter.Scheduler) Option {
	return func(h *Handler) {
		if s != nil {
			h.scheduler = s
		}
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.idleTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a web chat handler.
func NewHandler(w *chatbot.Widget, widgetJS []byte, logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		widget:      w,
		scheduler:   presenter.RealtimeScheduler{},
		logger:      logger,
		widgetJS:    widgetJS,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var errUnknownSession = errors.New("webchat: unknown session")

// openSession returns the session for id, or a new one when id is empty.
// created reports whether the conversation is new and still needs its
// greeting.
func (h *Handler) openSession(id string, meta leads.ClientMeta) (s *session, created bool, err error) {
	if id != "" {
		existing, ok := h.lookup(id)
		if !ok {
			return nil, false, errUnknownSession
		}
		return existing, false, nil
	}

	conv, err := h.widget.NewConversation(meta)
	if err != nil {
		return nil, false, err
	}
	s = &session{id: generateSessionID(), conv: conv, lastSeen: h.now()}
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	return s, true, nil
}

func (h *Handler) lookup(id string) (*session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// PruneIdle drops sessions with no activity for the idle timeout and no
// live connection. It returns how many were removed.
func (h *Handler) PruneIdle() int {
	cutoff := h.now().Add(-h.idleTimeout)

	h.mu.RLock()
	snapshot := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	var idle []*session
	for _, s := range snapshot {
		s.mu.Lock()
		if s.conn == nil && s.lastSeen.Before(cutoff) {
			s.pruned = true
			idle = append(idle, s)
		}
		s.mu.Unlock()
	}
	if len(idle) == 0 {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for _, s := range idle {
		if h.sessions[s.id] == s {
			delete(h.sessions, s.id)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (h *Handler) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.PruneIdle(); n > 0 {
				h.logger.Debug("webchat: pruned idle sessions", "count", n)
			}
		}
	}
}

// SessionCount is the number of live sessions.
func (h *Handler) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func clientMeta(r *http.Request) leads.ClientMeta {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = r.Referer()
	}
	return leads.ClientMeta{Page: page, UserAgent: r.UserAgent()}
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sess, created, err := h.openSession(r.URL.Query().Get("session"), clientMeta(r))
	if errors.Is(err, errUnknownSession) {
		sess, created, err = h.openSession("", clientMeta(r))
	}
	if err != nil {
		h.logger.Error("webchat: cannot open session", "error", err)
		_ = websocket.JSON.Send(conn, presenter.ErrorFrame("chat is not available right now"))
		return
	}

	wsc := newWSConn(conn, h.now)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess.mu.Lock()
	if sess.pruned {
		sess.mu.Unlock()
		if sess, created, err = h.openSession("", clientMeta(r)); err != nil {
			h.logger.Error("webchat: cannot open session", "error", err)
			_ = websocket.JSON.Send(conn, presenter.ErrorFrame("chat is not available right now"))
			return
		}
		sess.mu.Lock()
	}
	previous := sess.conn
	sess.conn = wsc
	sess.touch(h.now())
	sess.mu.Unlock()
	if previous != nil {
		_ = previous.conn.Close()
	}
	defer func() {
		sess.mu.Lock()
		if sess.conn == wsc {
			sess.conn = nil
		}
		sess.touch(h.now())
		sess.mu.Unlock()
		close(wsc.done)
	}()

	_ = wsc.send(presenter.SessionFrame(sess.id))
	if !created {
		for _, f := range resumeFrames(sess.conv.State()) {
			_ = wsc.send(f)
		}
	}

	go func() {
		if err := wsc.play(ctx, h.scheduler); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Debug("webchat: playback stopped", "session_id", sess.id, "error", err)
			_ = conn.Close()
		}
	}()

	if created {
		h.dispatch(sess, func(c *chatbot.Conversation) presenter.Timeline { return c.Start(ctx) })
	}

	h.logger.Info("webchat: connection opened", "session_id", sess.id, "resumed", !created)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sess.id, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = wsc.send(presenter.PongFrame())
		case "open":
			if sess.conv.Open() {
				_ = wsc.send(presenter.VisibilityFrame(true))
			}
		case "close":
			if sess.conv.Close() {
				_ = wsc.send(presenter.VisibilityFrame(false))
			}
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			h.dispatch(sess, func(c *chatbot.Conversation) presenter.Timeline { return c.Send(ctx, msg.Text) })
		case "choice":
			h.dispatch(sess, func(c *chatbot.Conversation) presenter.Timeline { return c.Choose(ctx, msg.Choice) })
		}
	}
}

// dispatch applies one event and queues its timeline on the live
// connection, keeping event order and playback order the same. A
// connection that cannot take the timeline is closed, which ends its
// read loop; the visitor resumes from history on reconnect.
func (h *Handler) dispatch(sess *session, event func(*chatbot.Conversation) presenter.Timeline) {
	sess.mu.Lock()
	sess.touch(h.now())
	tl := event(sess.conv)
	conn := sess.conn
	queued := conn == nil || conn.enqueue(tl)
	sess.mu.Unlock()

	if !queued {
		h.logger.Warn("webchat: dropping connection that stopped playing", "session_id", sess.id)
		_ = conn.conn.Close()
	}
}

// resumeFrames rebuilds the client view of an existing conversation.
func resumeFrames(state chatflow.State) []presenter.Frame {
	frames := []presenter.Frame{presenter.HistoryFrame(state.Messages)}
	enabled := state.Step.ExpectsText()
	frames = append(frames, presenter.Frame{Type: presenter.FrameInput, Enabled: &enabled})
	if len(state.Offered) > 0 {
		group := chatflow.GroupQuickReplies
		if state.Step == chatflow.StepGetServiceSelect {
			group = chatflow.GroupServices
		}
		frames = append(frames, presenter.Frame{
			Type:    presenter.FrameButtons,
			Group:   string(group),
			Buttons: state.Offered,
		})
	}
	return frames
}

// HandleMessage is the HTTP fallback for typed text.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.exchange(w, r, req.SessionID, func(ctx context.Context, c *chatbot.Conversation) presenter.Timeline {
		return c.Send(ctx, req.Text)
	})
}

// HandleAction is the HTTP fallback for button presses.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Choice    string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Choice == "" {
		http.Error(w, "choice is required", http.StatusBadRequest)
		return
	}
	h.exchange(w, r, req.SessionID, func(ctx context.Context, c *chatbot.Conversation) presenter.Timeline {
		return c.Choose(ctx, req.Choice)
	})
}

// exchange runs one HTTP fallback event. A request without a session
// starts a new conversation and answers with its greeting only.
func (h *Handler) exchange(w http.ResponseWriter, r *http.Request, sessionID string, event func(context.Context, *chatbot.Conversation) presenter.Timeline) {
	ctx := r.Context()
	sess, created, err := h.openSession(sessionID, clientMeta(r))
	switch {
	case errors.Is(err, errUnknownSession):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, chatbot.ErrNotInitialized):
		http.Error(w, "chat is not available", http.StatusServiceUnavailable)
		return
	case err != nil:
		h.logger.Error("webchat: cannot open session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	sess.mu.Lock()
	if sess.pruned {
		sess.mu.Unlock()
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	sess.touch(h.now())
	var tl presenter.Timeline
	if created {
		tl = sess.conv.Start(ctx)
	} else {
		tl = event(ctx, sess.conv)
	}
	step := sess.conv.State().Step
	sess.mu.Unlock()

	frames := make([]presenter.Frame, 0, len(tl))
	_ = presenter.ImmediateScheduler{}.Play(ctx, tl, func(f presenter.Frame) error {
		frames = append(frames, stamp(f, h.now()))
		return nil
	})

	writeJSON(w, http.StatusOK, ExchangeResponse{
		SessionID: sess.id,
		Step:      step.String(),
		Frames:    frames,
	})
}

// HandleHistory returns the transcript of a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	sess, ok := h.lookup(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	state := sess.conv.State()
	msgs := state.Messages
	if msgs == nil {
		msgs = []chatflow.Message{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		SessionID: sess.id,
		Step:      state.Step.String(),
		Messages:  msgs,
	})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
