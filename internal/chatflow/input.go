package chatflow

import "strings"

// InputKind distinguishes typed text from a button press.
type InputKind int

const (
	InputText InputKind = iota + 1
	InputChoice
)

// Input is one visitor action.
type Input struct {
	Kind   InputKind
	Text   string
	Choice string
}

// Text is a typed message. Callers trim it first.
func Text(s string) Input {
	return Input{Kind: InputText, Text: s}
}

// Choice is a press of the button with the given id.
func Choice(id string) Input {
	return Input{Kind: InputChoice, Choice: id}
}

func (i Input) isText() bool {
	return i.Kind == InputText && strings.TrimSpace(i.Text) != ""
}

func (i Input) isChoice(id string) bool {
	return i.Kind == InputChoice && i.Choice == id
}
