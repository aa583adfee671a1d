package service

import (
	"log"

	"locagent/internal/core/model"
)

// EventSink receives fire-and-forget notifications from the tracking core.
// Implementations must not block; slow consumers buffer or drop.
type EventSink interface {
	FixAccepted(fix *model.Fix)
	ZoneEntered(name string)
	ZoneExited(name string)
	ProfileSwitched(name string)
	TrackingStopped(reason string)
}

// LogEventSink writes every event to the process log.
type LogEventSink struct{}

func (LogEventSink) FixAccepted(fix *model.Fix) {
	log.Printf("event: fix accepted at %.6f,%.6f", fix.Latitude, fix.Longitude)
}

func (LogEventSink) ZoneEntered(name string) {
	log.Printf("event: entered pause zone %q", name)
}

func (LogEventSink) ZoneExited(name string) {
	log.Printf("event: exited pause zone %q", name)
}

func (LogEventSink) ProfileSwitched(name string) {
	if name == "" {
		log.Printf("event: profile reverted to defaults")
		return
	}
	log.Printf("event: profile switched to %q", name)
}

func (LogEventSink) TrackingStopped(reason string) {
	log.Printf("event: tracking stopped: %s", reason)
}

// NopEventSink discards all events.
type NopEventSink struct{}

func (NopEventSink) FixAccepted(*model.Fix)     {}
func (NopEventSink) ZoneEntered(string)         {}
func (NopEventSink) ZoneExited(string)          {}
func (NopEventSink) ProfileSwitched(string)     {}
func (NopEventSink) TrackingStopped(string)     {}

// MultiEventSink fans events out to several sinks.
type MultiEventSink []EventSink

func (m MultiEventSink) FixAccepted(fix *model.Fix) {
	for _, s := range m {
		s.FixAccepted(fix)
	}
}

func (m MultiEventSink) ZoneEntered(name string) {
	for _, s := range m {
		s.ZoneEntered(name)
	}
}

func (m MultiEventSink) ZoneExited(name string) {
	for _, s := range m {
		s.ZoneExited(name)
	}
}

func (m MultiEventSink) ProfileSwitched(name string) {
	for _, s := range m {
		s.ProfileSwitched(name)
	}
}

func (m MultiEventSink) TrackingStopped(reason string) {
	for _, s := range m {
		s.TrackingStopped(reason)
	}
}
