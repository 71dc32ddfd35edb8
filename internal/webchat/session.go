package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/acegrowth/ace-chatbot/internal/chatbot"
	"github.com/acegrowth/ace-chatbot/internal/presenter"
)

// playbackQueueSize bounds how many timelines may wait behind the one
// currently playing on a connection. A client that falls further behind
// is disconnected.
const playbackQueueSize = 16

// session is one page view: a conversation plus, while the visitor is
// connected, the WebSocket it is rendered on.
type session struct {
	id   string
	conv *chatbot.Conversation

	// mu orders events so timelines are queued in the order the
	// conversation produced them.
	mu       sync.Mutex
	lastSeen time.Time
	conn     *wsConn
	// pruned is set once the janitor has dropped the session; late
	// requests holding the pointer must not revive it.
	pruned bool
}

func (s *session) touch(now time.Time) {
	s.lastSeen = now
}

// wsConn is a live WebSocket with a single playback goroutine.
type wsConn struct {
	conn  *websocket.Conn
	now   func() time.Time
	queue chan presenter.Timeline
	// done is closed when the read loop exits, stopped when playback does.
	done    chan struct{}
	stopped chan struct{}

	sendMu sync.Mutex
}

func newWSConn(conn *websocket.Conn, now func() time.Time) *wsConn {
	return &wsConn{
		conn:  conn,
		now:   now,
		queue:   make(chan presenter.Timeline, playbackQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (c *wsConn) send(f presenter.Frame) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return websocket.JSON.Send(c.conn, stamp(f, c.now()))
}

// enqueue hands a timeline to the playback goroutine without blocking.
// It returns false once playback has stopped, the read loop has exited,
// or the queue is full; the caller should then drop the connection.
func (c *wsConn) enqueue(tl presenter.Timeline) bool {
	if len(tl) == 0 {
		return true
	}
	select {
	case <-c.stopped:
		return false
	case <-c.done:
		return false
	default:
	}
	select {
	case c.queue <- tl:
		return true
	default:
		return false
	}
}

// play runs until ctx is cancelled or a send fails. stopped is closed on
// return.
func (c *wsConn) play(ctx context.Context, scheduler presenter.Scheduler) error {
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tl := <-c.queue:
			if err := scheduler.Play(ctx, tl, c.send); err != nil {
				return err
			}
		}
	}
}

// stamp sets the emission time on visible messages.
func stamp(f presenter.Frame, now time.Time) presenter.Frame {
	if f.Type == presenter.FrameMessage && f.Timestamp == "" {
		f.Timestamp = now.UTC().Format(time.RFC3339)
	}
	return f
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
