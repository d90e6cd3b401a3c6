package models

import "time"

// EventType identifies a background event handed to the SDK receiver.
type EventType string

const (
	EventTrackingStarted EventType = "tracking_started"
	EventTrackingStopped EventType = "tracking_stopped"
	EventLocation        EventType = "location"
	EventError           EventType = "error"
)

// Event is a background notification delivered by the SDK outside the listener channel.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
}
