package service

import "parkilite/internal/apperr"

var (
	ErrMissingFields = apperr.Validation("missing_fields", "required fields are missing")

	ErrUserNotFound    = apperr.NotFound("user_not_found", "user is not registered")
	ErrVehicleNotFound = apperr.NotFound("vehicle_not_found", "user has no vehicle with this plate")
	ErrZoneNotFound    = apperr.NotFound("zone_not_found", "zone is not registered")
	ErrSessionNotFound = apperr.NotFound("session_not_found", "parking session does not exist")

	ErrActiveSessionConflict = apperr.Conflict("active_session_conflict", "vehicle already has an active parking session")
	ErrUserExists            = apperr.Conflict("user_exists", "username or email is already registered")
	ErrPlateTaken            = apperr.Conflict("plate_taken", "plate is already registered")
	ErrZoneExists            = apperr.Conflict("zone_exists", "zone name is already registered")

	ErrSessionNotActive = apperr.InvalidState("session_not_active", "parking session is no longer active and has already been settled")

	ErrZoneMissing = apperr.Integrity("zone_missing", "zone referenced by the session no longer exists", nil)
)
