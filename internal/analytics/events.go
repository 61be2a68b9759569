package analytics

import "time"

type EventType string

const (
	EventResolve      EventType = "resolve"
	EventEntryCreated EventType = "entry_created"
	EventEntryEdited  EventType = "entry_edited"
)

// ResolveEvent records one resolution of a title or search query.
type ResolveEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Outcome    string    `json:"outcome"`
	Candidates int       `json:"candidates"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

// EntryEvent records a create or edit.
type EntryEvent struct {
	Type      EventType `json:"type"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// envelope is decoded first to pick the concrete event type.
type envelope struct {
	Type EventType `json:"type"`
}
