// Package chatflow is the scripted lead-capture conversation: the ordered
// steps, what each step accepts, and what the visitor is shown next.
package chatflow

import "fmt"

// Step is a position in the fixed conversation sequence.
type Step int

const (
	StepGreeting Step = iota
	StepAskName
	StepGetName
	StepGetPhone
	StepGetPhoneInput
	StepGetEmail
	StepGetEmailInput
	StepGetService
	StepGetServiceSelect
	StepServiceOther
	StepGetDescription
	StepGetDescriptionInput
	StepComplete
)

var stepNames = [...]string{
	StepGreeting:            "greeting",
	StepAskName:             "ask_name",
	StepGetName:             "get_name",
	StepGetPhone:            "get_phone",
	StepGetPhoneInput:       "get_phone_input",
	StepGetEmail:            "get_email",
	StepGetEmailInput:       "get_email_input",
	StepGetService:          "get_service",
	StepGetServiceSelect:    "get_service_select",
	StepServiceOther:        "service_other",
	StepGetDescription:      "get_description",
	StepGetDescriptionInput: "get_description_input",
	StepComplete:            "complete",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// IsPrompt reports whether s only asks a question and immediately hands
// over to the step that reads the answer.
func (s Step) IsPrompt() bool {
	switch s {
	case StepAskName, StepGetPhone, StepGetEmail, StepGetService, StepGetDescription:
		return true
	}
	return false
}

// ExpectsText reports whether free-text input is enabled in s.
func (s Step) ExpectsText() bool {
	switch s {
	case StepGetName, StepGetPhoneInput, StepGetEmailInput, StepServiceOther, StepGetDescriptionInput:
		return true
	}
	return false
}

func (s Step) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stepNames) {
		return nil, fmt.Errorf("chatflow: unknown step %d", int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// ParseStep returns the step with the given wire name.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("chatflow: unknown step %q", name)
}
