package leads

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is one captured prospect. JSON names match the webhook payload.
type Lead struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Service     string    `json:"service"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	AfterHours  bool      `json:"afterHours"`
	Page        string    `json:"page"`
	UserAgent   string    `json:"userAgent"`
}

// Fields are the visitor-supplied answers collected by the conversation.
type Fields struct {
	Name        string
	Phone       string
	Email       string
	Service     string
	Description string
}

// ClientMeta is attribution context captured from the visitor's page.
type ClientMeta struct {
	Page      string
	UserAgent string
}

// New builds a Lead once every required field is present.
func New(f Fields, meta ClientMeta, now time.Time, afterHours bool) (Lead, error) {
	required := []struct {
		name  string
		value string
	}{
		{"name", f.Name},
		{"phone", f.Phone},
		{"email", f.Email},
		{"service", f.Service},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Lead{}, fmt.Errorf("%w: %s", ErrIncompleteLead, r.name)
		}
	}

	return Lead{
		ID:          NewID(now),
		Name:        f.Name,
		Phone:       f.Phone,
		Email:       f.Email,
		Service:     f.Service,
		Description: f.Description,
		Timestamp:   now.UTC(),
		AfterHours:  afterHours,
		Page:        meta.Page,
		UserAgent:   meta.UserAgent,
	}, nil
}

// NewID returns an identifier of the form lead_<unix-millis>_<6 hex chars>.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "lead_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
