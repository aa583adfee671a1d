package ws

import (
	"locagent/internal/core/model"
)

// EventSink publishes tracking events to the hub.
type EventSink struct {
	hub *Hub
}

func NewEventSink(hub *Hub) *EventSink {
	return &EventSink{hub: hub}
}

func (s *EventSink) FixAccepted(fix *model.Fix) {
	event := model.NewEvent(model.EventFixAccepted)
	event.Fix = fix
	s.hub.Broadcast(event)
}

func (s *EventSink) ZoneEntered(name string) {
	event := model.NewEvent(model.EventZoneEntered)
	event.Name = name
	s.hub.Broadcast(event)
}

func (s *EventSink) ZoneExited(name string) {
	event := model.NewEvent(model.EventZoneExited)
	event.Name = name
	s.hub.Broadcast(event)
}

func (s *EventSink) ProfileSwitched(name string) {
	event := model.NewEvent(model.EventProfileSwitched)
	event.Name = name
	s.hub.Broadcast(event)
}

func (s *EventSink) TrackingStopped(reason string) {
	event := model.NewEvent(model.EventTrackingStopped)
	event.Reason = reason
	s.hub.Broadcast(event)
}
