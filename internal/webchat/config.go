package webchat

import (
	"net/http"

	"github.com/acegrowth/ace-chatbot/internal/chatbot"
)

// PublicConfig is the part of the widget options a browser may see. The
// webhook URL stays on the server.
type PublicConfig struct {
	Version      string   `json:"version"`
	CompanyName  string   `json:"companyName"`
	Phone        string   `json:"phone"`
	Services     []string `json:"services"`
	AccentColor  string   `json:"accentColor"`
	DarkBg       string   `json:"darkBg"`
	DarkerBg     string   `json:"darkerBg"`
	TextColor    string   `json:"textColor"`
	Position     string   `json:"position"`
	BubbleIcon   string   `json:"bubbleIcon,omitempty"`
	ShowBranding bool     `json:"showBranding"`
	AfterHours   bool     `json:"afterHours"`
	Status       string   `json:"status"`
}

// HandleConfig returns the mounted widget appearance and the header status.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	opts, err := h.widget.Options()
	if err != nil {
		http.Error(w, "chat is not available", http.StatusServiceUnavailable)
		return
	}
	now := h.now()
	writeJSON(w, http.StatusOK, PublicConfig{
		Version:      chatbot.Version,
		CompanyName:  opts.CompanyName,
		Phone:        opts.Phone,
		Services:     opts.Services,
		AccentColor:  opts.AccentColor,
		DarkBg:       opts.DarkBg,
		DarkerBg:     opts.DarkerBg,
		TextColor:    opts.TextColor,
		Position:     opts.Position,
		BubbleIcon:   opts.BubbleIcon,
		ShowBranding: opts.ShowBranding,
		AfterHours:   opts.IsAfterHours(now),
		Status:       opts.StatusLine(now),
	})
}
