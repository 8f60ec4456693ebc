package domain

import "time"

type EventKind string

func (k EventKind) String() string {
	return string(k)
}

const (
	EventSessionStart   EventKind = "sessionStart"
	EventDrawerOpen     EventKind = "drawerOpen"
	EventCategorySelect EventKind = "categorySelect"
	EventVideoLoop      EventKind = "videoLoop"
)

// AnalyticsEvent is one entry of an ingestion batch
type AnalyticsEvent struct {
	EventType     EventKind      `json:"eventType"`
	SessionID     string         `json:"sessionId"`
	SlydePublicID string         `json:"slydePublicId"`
	Source        string         `json:"source"`
	Referrer      string         `json:"referrer,omitempty"`
	Meta          map[string]any `json:"meta"`
	OccurredAt    time.Time      `json:"-"`
}

// AnalyticsBatch is the payload accepted by the ingestion endpoint. The engine
// always sends exactly one event per batch.
type AnalyticsBatch struct {
	OrganizationSlug string           `json:"organizationSlug"`
	Events           []AnalyticsEvent `json:"events"`
	// KeepAlive asks the transport to finish delivery even if the viewer goes away.
	KeepAlive bool `json:"-"`
}
