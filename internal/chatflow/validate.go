package chatflow

import (
	"strings"

	"github.com/acegrowth/ace-chatbot/internal/widget"
)

// minPhoneDigits is the fewest digits accepted as a phone number.
const minPhoneDigits = 7

// ValidPhone accepts any text containing at least seven digits.
func ValidPhone(s string) bool {
	return len(widget.DigitsOnly(s)) >= minPhoneDigits
}

// ValidEmail accepts any text containing both "@" and ".".
func ValidEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// NormalizeDescription maps an explicit "skip" to an empty description.
// Only ASCII case differences count; no Unicode folding.
func NormalizeDescription(s string) string {
	if strings.ToLower(s) == "skip" {
		return ""
	}
	return s
}
