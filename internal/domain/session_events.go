package domain

import "time"

type SessionEventType string

const (
	SessionEventStarted SessionEventType = "session_started"
	SessionEventSettled SessionEventType = "session_settled"
)

// SessionEventNotification is pushed to websocket subscribers after a start or
// stop has been committed.
type SessionEventNotification struct {
	EventID   string           `json:"event_id"`
	EventType SessionEventType `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Plate     string           `json:"plate"`
	ZoneName  string           `json:"zone_name"`
	Session   ParkingSession   `json:"session"`
	Message   string           `json:"message,omitempty"`
}
