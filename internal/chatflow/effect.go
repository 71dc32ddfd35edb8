package chatflow

// Effect is something the visitor should see or the host should do as a
// result of a transition.
type Effect interface {
	effect()
}

// Say shows a bot message. HTML marks trusted markup built by this package.
type Say struct {
	Text string
	HTML bool
}

// Prompt enables or disables free-text input.
type Prompt struct {
	Enabled     bool
	Placeholder string
}

// ButtonGroup selects how a set of buttons is rendered.
type ButtonGroup string

const (
	GroupQuickReplies ButtonGroup = "quick_replies"
	GroupServices     ButtonGroup = "services"
)

// Button is one offered choice.
type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Buttons offers a group of choices. They are withdrawn once one is chosen.
type Buttons struct {
	Group   ButtonGroup
	Buttons []Button
}

// Dial asks the host to start a phone call to Number (digits only).
type Dial struct {
	Number string
}

// Submit marks the point at which the lead is captured.
type Submit struct{}

func (Say) effect()     {}
func (Prompt) effect()  {}
func (Buttons) effect() {}
func (Dial) effect()    {}
func (Submit) effect()  {}
