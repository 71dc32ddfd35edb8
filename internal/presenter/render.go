package presenter

import (
	"time"
	"unicode/utf16"

	"github.com/acegrowth/ace-chatbot/internal/chatflow"
)

const (
	baseTypingDelay    = 600 * time.Millisecond
	perCharTypingDelay = 12 * time.Millisecond
	maxTypingDelay     = 1800 * time.Millisecond

	// ServiceButtonsDelay separates the service question from its buttons.
	ServiceButtonsDelay = 300 * time.Millisecond

	// GreetingDelay is the pause between mounting and the first message.
	GreetingDelay = 600 * time.Millisecond
)

// TypingDelay is how long the typing indicator shows before text appears.
// Length is counted in UTF-16 code units so pacing matches the browser.
func TypingDelay(text string) time.Duration {
	d := baseTypingDelay + time.Duration(len(utf16.Encode([]rune(text))))*perCharTypingDelay
	if d > maxTypingDelay {
		return maxTypingDelay
	}
	return d
}

// Timeline is an ordered list of frames; each frame's DelayMS is relative
// to the one before it.
type Timeline []Frame

// Duration is the total wall time needed to play t.
func (t Timeline) Duration() time.Duration {
	var total time.Duration
	for _, f := range t {
		total += f.Delay()
	}
	return total
}

// Delayed returns a copy of t whose first frame waits an extra d.
func (t Timeline) Delayed(d time.Duration) Timeline {
	if len(t) == 0 {
		return t
	}
	out := append(Timeline(nil), t...)
	out[0].DelayMS += d.Milliseconds()
	return out
}

// Renderer converts effects to a Timeline.
type Renderer struct {
	// Typing enables the typing indicator and the delays around it.
	Typing bool
}

// Render builds the timeline for one batch of effects. Submit has no
// visible form and is skipped.
func (r Renderer) Render(effects []chatflow.Effect) Timeline {
	var tl Timeline
	for _, e := range effects {
		switch e := e.(type) {
		case chatflow.Say:
			var delay time.Duration
			if r.Typing {
				delay = TypingDelay(e.Text)
				tl = append(tl, Frame{Type: FrameTyping, Role: RoleBot})
			}
			tl = append(tl, Frame{
				Type:    FrameMessage,
				Role:    RoleBot,
				Text:    e.Text,
				HTML:    e.HTML,
				DelayMS: delay.Milliseconds(),
			})
		case chatflow.Buttons:
			f := Frame{
				Type:    FrameButtons,
				Group:   string(e.Group),
				Buttons: append([]chatflow.Button(nil), e.Buttons...),
			}
			if r.Typing && e.Group == chatflow.GroupServices {
				f.DelayMS = ServiceButtonsDelay.Milliseconds()
			}
			tl = append(tl, f)
		case chatflow.Prompt:
			enabled := e.Enabled
			tl = append(tl, Frame{Type: FrameInput, Enabled: &enabled, Placeholder: e.Placeholder})
		case chatflow.Dial:
			tl = append(tl, Frame{Type: FrameDial, Href: "tel:" + e.Number})
		}
	}
	return tl
}
