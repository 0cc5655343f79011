package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionInactive SessionStatus = "inactive" // settled within the zone's grace period
	SessionFined    SessionStatus = "fined"    // settled with the overstay fine
	SessionPending  SessionStatus = "pending"  // balance could not cover cost_total
)

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch st := SessionStatus(s); st {
	case SessionActive, SessionInactive, SessionFined, SessionPending:
		return st, nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s SessionStatus) Terminal() bool {
	return s == SessionInactive || s == SessionFined || s == SessionPending
}

func (s *SessionStatus) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan session status: unsupported type %T", value)
	}
	st, err := ParseSessionStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (s SessionStatus) Value() (driver.Value, error) {
	if _, err := ParseSessionStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

type ParkingSession struct {
	ID        int           `json:"id"`
	UserID    int           `json:"user_id"`
	VehicleID int           `json:"vehicle_id"`
	ZoneID    int           `json:"zone_id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   null.Time     `json:"ended_at"`
	Minutes   null.Int      `json:"minutes"`
	Cost      NullMoney     `json:"cost"`
	CostTotal NullMoney     `json:"cost_total"`
	Status    SessionStatus `json:"status"`
}

var SessionSortKeys = map[string]string{
	"-started_at": "started_at DESC, id DESC",
	"started_at":  "started_at ASC, id ASC",
	"-id":         "id DESC",
	"id":          "id ASC",
}

const DefaultSessionSort = "-started_at"

type StartSessionDTO struct {
	UserID int    `json:"user_id"`
	Plate  string `json:"plate"`
	ZoneID int    `json:"zone_id"`
}

type StopSessionDTO struct {
	UserID    int `json:"user_id"`
	SessionID int `json:"session_id"`
}
