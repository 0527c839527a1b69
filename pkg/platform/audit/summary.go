package audit

import (
	"fmt"
	"strings"
	"time"

	"pawtrail/pkg/platform/auditlog"
)

// EmptySummary is read out when a subsystem has not recorded anything yet.
const EmptySummary = auditlog.DefaultEmptySummary

// Summarizer builds the accessibility summary for grooming logs relative to now.
func Summarizer(now func() time.Time) auditlog.Summarizer[Entry] {
	return func(e auditlog.Event[Entry]) string {
		return summarize(e, now())
	}
}

// Summarize describes e relative to the current time.
func Summarize(e auditlog.Event[Entry]) string {
	return summarize(e, time.Now())
}

func summarize(e auditlog.Event[Entry], now time.Time) string {
	var b strings.Builder
	b.WriteString(humanize(string(e.Payload.Action)))
	if e.Payload.Target != "" {
		b.WriteString(" on ")
		b.WriteString(e.Payload.Target)
	}
	if e.Payload.Actor != "" {
		b.WriteString(" by ")
		b.WriteString(e.Payload.Actor)
	}
	b.WriteString(", ")
	b.WriteString(relative(now.Sub(e.Timestamp)))
	return b.String()
}

// humanize turns "flag_changed" into "Flag changed".
func humanize(action string) string {
	if action == "" {
		return "Event"
	}
	s := strings.ReplaceAll(action, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func relative(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(d/time.Second))
	case d < 2*time.Minute:
		return "1 minute ago"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d/time.Minute))
	case d < 2*time.Hour:
		return "1 hour ago"
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d/time.Hour))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", int(d/(24*time.Hour)))
	}
}
