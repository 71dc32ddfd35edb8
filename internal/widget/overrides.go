package widget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overrides carries caller-supplied options. Nil fields keep the default.
type Overrides struct {
	CompanyName     *string  `json:"companyName,omitempty" yaml:"companyName"`
	Phone           *string  `json:"phone,omitempty" yaml:"phone"`
	Services        []string `json:"services,omitempty" yaml:"services"`
	WebhookURL      *string  `json:"webhookUrl,omitempty" yaml:"webhookUrl"`
	AccentColor     *string  `json:"accentColor,omitempty" yaml:"accentColor"`
	DarkBg          *string  `json:"darkBg,omitempty" yaml:"darkBg"`
	DarkerBg        *string  `json:"darkerBg,omitempty" yaml:"darkerBg"`
	TextColor       *string  `json:"textColor,omitempty" yaml:"textColor"`
	Position        *string  `json:"position,omitempty" yaml:"position"`
	Greeting        *string  `json:"greeting,omitempty" yaml:"greeting"`
	AfterHoursStart *int     `json:"afterHoursStart,omitempty" yaml:"afterHoursStart"`
	AfterHoursEnd   *int     `json:"afterHoursEnd,omitempty" yaml:"afterHoursEnd"`
	Timezone        *string  `json:"timezone,omitempty" yaml:"timezone"`
	BubbleIcon      *string  `json:"bubbleIcon,omitempty" yaml:"bubbleIcon"`
	ShowBranding    *bool    `json:"showBranding,omitempty" yaml:"showBranding"`
}

// Merge lays o over base and returns the result. base is not modified.
func (o Overrides) Merge(base Options) Options {
	out := base.Clone()
	setString(&out.CompanyName, o.CompanyName)
	setString(&out.Phone, o.Phone)
	if o.Services != nil {
		out.Services = append([]string(nil), o.Services...)
	}
	setString(&out.WebhookURL, o.WebhookURL)
	setString(&out.AccentColor, o.AccentColor)
	setString(&out.DarkBg, o.DarkBg)
	setString(&out.DarkerBg, o.DarkerBg)
	setString(&out.TextColor, o.TextColor)
	setString(&out.Position, o.Position)
	setString(&out.Greeting, o.Greeting)
	if o.AfterHoursStart != nil {
		out.AfterHoursStart = *o.AfterHoursStart
	}
	if o.AfterHoursEnd != nil {
		out.AfterHoursEnd = *o.AfterHoursEnd
	}
	setString(&out.Timezone, o.Timezone)
	setString(&out.BubbleIcon, o.BubbleIcon)
	if o.ShowBranding != nil {
		out.ShowBranding = *o.ShowBranding
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// LoadOverrides reads overrides from a YAML or JSON file.
// ${VAR_NAME} references are expanded from the environment first.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("widget: read options file: %w", err)
	}
	expanded := []byte(expandEnvVars(string(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(expanded, &o)
	default:
		err = yaml.Unmarshal(expanded, &o)
	}
	if err != nil {
		return o, fmt.Errorf("widget: parse options file: %w", err)
	}
	return o, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or "" when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}
