package entities

import "time"

// RunEventType identifies what happened in an analysis run
type RunEventType string

const (
	RunEventReportCompleted RunEventType = "report.completed"
)

// RunEvent is published when a country report has been assembled
type RunEvent struct {
	ID          string       `json:"id"`
	Type        RunEventType `json:"type"`
	RunID       string       `json:"run_id"`
	Country     string       `json:"country"`
	Chart       Chart        `json:"chart"`
	Apps        int          `json:"apps"`
	NewApps     int          `json:"new_apps"`
	TopKeywords []Suggestion `json:"top_keywords"`
	Timestamp   time.Time    `json:"timestamp"`
}
