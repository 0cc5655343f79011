package domain

import "time"

// Zone is a pricing policy: a per-minute rate and the number of minutes a
// session may last before the overstay fine applies.
type Zone struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	RatePerMin Money     `json:"rate_per_min"`
	MaxMinutes int       `json:"max_minutes"`
	CreatedAt  time.Time `json:"created_at"`
}

type ZoneDTO struct {
	Name       string `json:"name" binding:"required,max=80"`
	RatePerMin *Money `json:"rate_per_min" binding:"required"`
	MaxMinutes int    `json:"max_minutes" binding:"required"`
}

// ZoneSortKeys maps the public sort parameter to an ORDER BY clause.
var ZoneSortKeys = map[string]string{
	"name":  "LOWER(name) ASC, id ASC",
	"-name": "LOWER(name) DESC, id DESC",
	"id":    "id ASC",
	"-id":   "id DESC",
}

const DefaultZoneSort = "name"
