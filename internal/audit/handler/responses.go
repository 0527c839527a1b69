package handler

import (
	"github.com/google/uuid"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/auditlog"
)

// LogInfo describes one source log.
type LogInfo struct {
	Source   audit.Source `json:"source"`
	Len      int          `json:"len"`
	Capacity int          `json:"capacity"`
	Summary  string       `json:"summary"`
}

type ListLogsResponse struct {
	Logs []LogInfo `json:"logs"`
}

type RecentResponse struct {
	Source audit.Source                  `json:"source"`
	Count  int                           `json:"count"`
	Events []auditlog.Event[audit.Entry] `json:"events"`
}

type SummaryResponse struct {
	Source  audit.Source `json:"source"`
	Summary string       `json:"summary"`
}

type ClearResponse struct {
	Source  audit.Source `json:"source"`
	Cleared int          `json:"cleared"`
	EventID uuid.UUID    `json:"event_id"`
}

type ImportResponse struct {
	Source   audit.Source `json:"source"`
	Imported int          `json:"imported"`
	EventID  uuid.UUID    `json:"event_id"`
}
