// Package widget holds the initialization options of an embedded chat widget.
package widget

import (
	"errors"
	"fmt"
	"strings"
)

const (
	PositionLeft  = "left"
	PositionRight = "right"
)

var (
	// ErrInvalidPosition is returned when position is neither left nor right.
	ErrInvalidPosition = errors.New("widget: position must be \"left\" or \"right\"")

	// ErrInvalidHour is returned when an after-hours bound is outside 0-23.
	ErrInvalidHour = errors.New("widget: after-hours bounds must be within 0-23")
)

// Options is the fully resolved widget configuration.
type Options struct {
	CompanyName     string   `json:"companyName" yaml:"companyName"`
	Phone           string   `json:"phone" yaml:"phone"`
	Services        []string `json:"services" yaml:"services"`
	WebhookURL      string   `json:"webhookUrl" yaml:"webhookUrl"`
	AccentColor     string   `json:"accentColor" yaml:"accentColor"`
	DarkBg          string   `json:"darkBg" yaml:"darkBg"`
	DarkerBg        string   `json:"darkerBg" yaml:"darkerBg"`
	TextColor       string   `json:"textColor" yaml:"textColor"`
	Position        string   `json:"position" yaml:"position"`
	Greeting        string   `json:"greeting,omitempty" yaml:"greeting"`
	AfterHoursStart int      `json:"afterHoursStart" yaml:"afterHoursStart"`
	AfterHoursEnd   int      `json:"afterHoursEnd" yaml:"afterHoursEnd"`
	Timezone        string   `json:"timezone" yaml:"timezone"`
	BubbleIcon      string   `json:"bubbleIcon,omitempty" yaml:"bubbleIcon"`
	ShowBranding    bool     `json:"showBranding" yaml:"showBranding"`
}

// Defaults returns the options used when the host page supplies none.
func Defaults() Options {
	return Options{
		CompanyName: "Our Company",
		Phone:       "(555) 123-4567",
		Services: []string{
			"Kitchen Remodel",
			"Bathroom Remodel",
			"Roofing",
			"Siding",
			"Windows & Doors",
			"Flooring",
			"Painting",
			"General Contracting",
		},
		AccentColor:     "#C49A6C",
		DarkBg:          "#1a1a2e",
		DarkerBg:        "#12121f",
		TextColor:       "#f0ece4",
		Position:        PositionRight,
		AfterHoursStart: 18,
		AfterHoursEnd:   7,
		Timezone:        "America/New_York",
		ShowBranding:    true,
	}
}

// Validate checks the enumerated and ranged fields.
func (o Options) Validate() error {
	if o.Position != PositionLeft && o.Position != PositionRight {
		return fmt.Errorf("%w: got %q", ErrInvalidPosition, o.Position)
	}
	for _, h := range []int{o.AfterHoursStart, o.AfterHoursEnd} {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: got %d", ErrInvalidHour, h)
		}
	}
	return nil
}

// DialNumber strips everything but digits so the phone can be used in a tel: link.
func (o Options) DialNumber() string {
	return DigitsOnly(o.Phone)
}

// DigitsOnly returns the digit characters of s in order.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Clone returns a copy that shares no slices with o.
func (o Options) Clone() Options {
	out := o
	out.Services = append([]string(nil), o.Services...)
	return out
}
