// Package presenter turns conversation effects into the frames a chat
// client renders, with the pacing a human-looking bot needs.
package presenter

import (
	"time"

	"github.com/acegrowth/ace-chatbot/internal/chatflow"
)

// Frame types.
const (
	FrameMessage = "message"
	FrameTyping  = "typing"
	FrameButtons = "buttons"
	FrameInput   = "input"
	FrameDial    = "dial"
	FrameOpen    = "open"
	FrameClose   = "close"
	FrameSession = "session"
	FrameHistory = "history"
	FrameError   = "error"
	FramePong    = "pong"
)

// RoleBot marks frames authored by the bot. Visitor messages are echoed
// by the client itself.
const RoleBot = "bot"

// Frame is one unit sent to the client.
type Frame struct {
	Type        string             `json:"type"`
	Role        string             `json:"role,omitempty"`
	Text        string             `json:"text,omitempty"`
	HTML        bool               `json:"html,omitempty"`
	Group       string             `json:"group,omitempty"`
	Buttons     []chatflow.Button  `json:"buttons,omitempty"`
	Enabled     *bool              `json:"enabled,omitempty"`
	Placeholder string             `json:"placeholder,omitempty"`
	Href        string             `json:"href,omitempty"`
	DelayMS     int64              `json:"delay_ms,omitempty"`
	SessionID   string             `json:"session_id,omitempty"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Messages    []chatflow.Message `json:"messages,omitempty"`
}

// Delay is how long the client waits after the previous frame before
// showing this one.
func (f Frame) Delay() time.Duration {
	return time.Duration(f.DelayMS) * time.Millisecond
}

// SessionFrame announces the session id to a newly connected client.
func SessionFrame(id string) Frame {
	return Frame{Type: FrameSession, SessionID: id}
}

// HistoryFrame replays the transcript so far.
func HistoryFrame(msgs []chatflow.Message) Frame {
	return Frame{Type: FrameHistory, Messages: msgs}
}

func ErrorFrame(text string) Frame {
	return Frame{Type: FrameError, Text: text}
}

func PongFrame() Frame {
	return Frame{Type: FramePong}
}

// VisibilityFrame reflects the open/closed state of the chat window.
func VisibilityFrame(open bool) Frame {
	if open {
		return Frame{Type: FrameOpen}
	}
	return Frame{Type: FrameClose}
}
