package chatflow

import (
	"fmt"
	"html"
	"strings"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/internal/widget"
)

// Data is what the visitor has told us so far.
type Data struct {
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Service     string `json:"service,omitempty"`
	Description string `json:"description,omitempty"`
}

// Fields converts the collected answers into lead fields.
func (d Data) Fields() leads.Fields {
	return leads.Fields{
		Name:        d.Name,
		Phone:       d.Phone,
		Email:       d.Email,
		Service:     d.Service,
		Description: d.Description,
	}
}

// Context is the read-only environment a transition runs in.
type Context struct {
	Options    widget.Options
	AfterHours bool
}

// Outcome is the result of feeding one input to one step.
type Outcome struct {
	Next    Step
	Data    Data
	Effects []Effect
	// Ignored is set when the step does not accept the input at all.
	Ignored bool
	// Rejected is set when the input was read but failed validation.
	Rejected bool
}

// Greet returns the opening message and quick replies.
func Greet(ctx Context) []Effect {
	greeting := ctx.Options.Greeting
	if strings.TrimSpace(greeting) == "" {
		greeting = defaultGreeting
	}
	return []Effect{
		Say{Text: greeting},
		greetingButtons(ctx),
	}
}

// Transition computes the next step, data and effects for one input. It
// performs no I/O; data is passed by value so a rejected input leaves the
// caller's copy untouched.
func Transition(step Step, data Data, in Input, ctx Context) Outcome {
	switch step {
	case StepGreeting:
		switch {
		case in.isChoice(ChoiceStartEstimate):
			return enter(StepAskName, data, ctx)
		case in.isChoice(ChoiceCall):
			return Outcome{
				Next:    StepGreeting,
				Data:    data,
				Effects: []Effect{Dial{Number: ctx.Options.DialNumber()}, greetingButtons(ctx)},
			}
		}

	case StepGetName:
		if in.isText() {
			data.Name = in.Text
			return enter(StepGetPhone, data, ctx)
		}

	case StepGetPhoneInput:
		if in.isText() {
			if !ValidPhone(in.Text) {
				return reject(step, data, invalidPhoneText, phonePlaceholder)
			}
			data.Phone = in.Text
			return enter(StepGetEmail, data, ctx)
		}

	case StepGetEmailInput:
		if in.isText() {
			if !ValidEmail(in.Text) {
				return reject(step, data, invalidEmailText, emailPlaceholder)
			}
			data.Email = in.Text
			return enter(StepGetService, data, ctx)
		}

	case StepGetServiceSelect:
		if in.isChoice(ChoiceOther) {
			return Outcome{
				Next: StepServiceOther,
				Data: data,
				Effects: []Effect{
					Say{Text: otherServiceText},
					Prompt{Enabled: true, Placeholder: otherServicePlaceholder},
				},
			}
		}
		if in.Kind == InputChoice {
			if svc, ok := lookupService(ctx.Options.Services, in.Choice); ok {
				data.Service = svc
				return enter(StepGetDescription, data, ctx)
			}
			break
		}
		if in.isText() {
			data.Service = in.Text
			return enter(StepGetDescription, data, ctx)
		}

	case StepServiceOther:
		if in.isText() {
			data.Service = in.Text
			return enter(StepGetDescription, data, ctx)
		}

	case StepGetDescriptionInput:
		if in.isText() {
			data.Description = NormalizeDescription(in.Text)
			return enter(StepComplete, data, ctx)
		}

	case StepComplete:
		switch {
		case in.isChoice(ChoiceCallNow):
			return Outcome{Next: StepComplete, Data: data, Effects: []Effect{Dial{Number: ctx.Options.DialNumber()}}}
		case in.isChoice(ChoiceAcknowledge):
			return Outcome{Next: StepComplete, Data: data, Effects: []Effect{Say{Text: thanksText}}}
		}
	}

	return Outcome{Next: step, Data: data, Ignored: true}
}

// enter runs a prompt step and returns the input step it hands over to.
func enter(step Step, data Data, ctx Context) Outcome {
	out := Outcome{Data: data}
	switch step {
	case StepAskName:
		out.Next = StepGetName
		out.Effects = ask(askNameText, askNamePlaceholder)
	case StepGetPhone:
		out.Next = StepGetPhoneInput
		out.Effects = ask(fmt.Sprintf(askPhoneFormat, data.Name), phonePlaceholder)
	case StepGetEmail:
		out.Next = StepGetEmailInput
		out.Effects = ask(askEmailText, emailPlaceholder)
	case StepGetService:
		out.Next = StepGetServiceSelect
		out.Effects = []Effect{
			Prompt{Enabled: false},
			Say{Text: askServiceText},
			serviceButtons(ctx),
		}
	case StepGetDescription:
		out.Next = StepGetDescriptionInput
		out.Effects = ask(askDescriptionText, descriptionPlaceholder)
	case StepComplete:
		out.Next = StepComplete
		out.Effects = completion(data, ctx)
	default:
		out.Next = step
	}
	return out
}

func ask(text, placeholder string) []Effect {
	return []Effect{
		Prompt{Enabled: false},
		Say{Text: text},
		Prompt{Enabled: true, Placeholder: placeholder},
	}
}

func reject(step Step, data Data, text, placeholder string) Outcome {
	return Outcome{
		Next:     step,
		Data:     data,
		Rejected: true,
		Effects: []Effect{
			Say{Text: text},
			Prompt{Enabled: true, Placeholder: placeholder},
		},
	}
}

func completion(data Data, ctx Context) []Effect {
	followUp := fmt.Sprintf(followUpFormat, ctx.Options.CompanyName, ctx.Options.Phone)
	if ctx.AfterHours {
		followUp += afterHoursSuffix
	}
	return []Effect{
		Prompt{Enabled: false},
		Submit{},
		Say{Text: fmt.Sprintf(successHTMLFormat, html.EscapeString(data.Name)), HTML: true},
		Say{Text: followUp},
		Buttons{
			Group: GroupQuickReplies,
			Buttons: []Button{
				{ID: ChoiceCallNow, Label: fmt.Sprintf(callNowLabelFormat, ctx.Options.Phone)},
				{ID: ChoiceAcknowledge, Label: acknowledgeLabel},
			},
		},
	}
}

func greetingButtons(ctx Context) Buttons {
	return Buttons{
		Group: GroupQuickReplies,
		Buttons: []Button{
			{ID: ChoiceStartEstimate, Label: startEstimateLabel},
			{ID: ChoiceCall, Label: fmt.Sprintf(callLabelFormat, ctx.Options.Phone)},
		},
	}
}

func serviceButtons(ctx Context) Buttons {
	buttons := make([]Button, 0, len(ctx.Options.Services)+1)
	for _, svc := range ctx.Options.Services {
		buttons = append(buttons, Button{ID: ServiceChoiceID(svc), Label: svc})
	}
	buttons = append(buttons, Button{ID: ChoiceOther, Label: otherLabel})
	return Buttons{Group: GroupServices, Buttons: buttons}
}

func lookupService(services []string, id string) (string, bool) {
	name, ok := strings.CutPrefix(id, serviceChoicePrefix)
	if !ok {
		return "", false
	}
	for _, svc := range services {
		if svc == name {
			return svc, true
		}
	}
	return "", false
}
