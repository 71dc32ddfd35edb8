package widget

import "time"

// IsAfterHours reports whether now falls in the configured closed window.
// The window wraps midnight: the business is closed when the hour is at or
// past AfterHoursStart or before AfterHoursEnd. If the timezone cannot be
// resolved the system's local clock hour is used instead.
func (o Options) IsAfterHours(now time.Time) bool {
	hour := o.localHour(now)
	return hour >= o.AfterHoursStart || hour < o.AfterHoursEnd
}

func (o Options) localHour(now time.Time) int {
	if o.Timezone == "" {
		return now.Local().Hour()
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return now.Local().Hour()
	}
	return now.In(loc).Hour()
}

// StatusLine is the availability text shown under the company name.
func (o Options) StatusLine(now time.Time) string {
	if o.IsAfterHours(now) {
		return "Away — we'll reply ASAP"
	}
	return "Online — typically replies instantly"
}
