package models

import "time"

// EventType enumerates the analytics event union.
type EventType string

const (
	EventPageView    EventType = "pageview"
	EventDownload    EventType = "download"
	EventSearch      EventType = "search"
	EventFilter      EventType = "filter"
	EventInteraction EventType = "interaction"
	EventError       EventType = "error"
	EventPerformance EventType = "performance"
)

// Valid reports whether the event type is part of the union.
func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventDownload, EventSearch, EventFilter, EventInteraction, EventError, EventPerformance:
		return true
	}
	return false
}

// AnalyticsEvent is the tagged union over tracked event kinds. Type-specific
// fields travel in Payload; the common stamps are flattened alongside.
type AnalyticsEvent struct {
	Type      EventType              `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"sessionId"`
	UserID    string                 `json:"userId,omitempty"`
}

// SystemMetrics aggregates instrumentation counters for the admin dashboard.
type SystemMetrics struct {
	Requests      uint64  `json:"requests"`
	AvgRequestMs  float64 `json:"avgRequestMs"`
	CacheHitRatio float64 `json:"cacheHitRatio"`
	DBQueries     uint64  `json:"dbQueries"`
	AvgDBQueryMs  float64 `json:"avgDbQueryMs"`
	Downloads     uint64  `json:"downloads"`
	Searches      uint64  `json:"searches"`
	Goroutines    int     `json:"goroutines"`
}

// AnalyticsStats is a lightweight counters snapshot for the admin endpoint.
type AnalyticsStats struct {
	Queued        int       `json:"queued"`
	Flushed       int       `json:"flushed"`
	Dropped       int       `json:"dropped"`
	FailedFlushes int       `json:"failedFlushes"`
	LastFlushAt   time.Time `json:"lastFlushAt"`
}
