package domain

import "time"

const MaxPlateLength = 10

type Vehicle struct {
	ID        int       `json:"id"`
	Plate     string    `json:"plate"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterVehicleDTO struct {
	Plate  string `json:"plate"`
	UserID int    `json:"user_id"`
}

var VehicleSortKeys = map[string]string{
	"plate":  "LOWER(plate) ASC, id ASC",
	"-plate": "LOWER(plate) DESC, id DESC",
	"id":     "id ASC",
	"-id":    "id DESC",
}

const DefaultVehicleSort = "plate"
