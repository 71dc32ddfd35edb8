package notify

import (
	"time"

	"github.com/acegrowth/ace-chatbot/internal/leads"
)

// Source tags every payload sent by the widget.
const Source = "ace-chatbot"

// Payload is the JSON body POSTed to the configured webhook.
type Payload struct {
	Source    string     `json:"source"`
	Version   string     `json:"version"`
	Timestamp time.Time  `json:"timestamp"`
	Company   string     `json:"company"`
	Lead      leads.Lead `json:"lead"`
}

// NewPayload wraps lead for delivery.
func NewPayload(version, company string, lead leads.Lead, now time.Time) Payload {
	return Payload{
		Source:    Source,
		Version:   version,
		Timestamp: now.UTC(),
		Company:   company,
		Lead:      lead,
	}
}
