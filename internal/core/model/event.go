package model

import "time"

// Event types emitted by the tracking core.
const (
	EventFixAccepted     = "fix_accepted"
	EventZoneEntered     = "zone_entered"
	EventZoneExited      = "zone_exited"
	EventProfileSwitched = "profile_switched"
	EventTrackingStopped = "tracking_stopped"
)

// Event is a fire-and-forget notification for external observers.
type Event struct {
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Fix       *Fix      `json:"fix,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(eventType string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC()}
}
