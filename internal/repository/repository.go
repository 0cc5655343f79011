package repository

import (
	"context"
	"errors"

	"parkilite/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")
var ErrNoActiveSession = errors.New("no active parking session for the given vehicle")

// ErrActiveSessionExists is returned when inserting a second active session
// for a vehicle trips the one-active-session-per-vehicle constraint.
var ErrActiveSessionExists = errors.New("vehicle already has an active parking session")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateBalance(ctx context.Context, id int, balance domain.Money) error
}

type ZoneRepository interface {
	Create(ctx context.Context, zone *domain.Zone) (*domain.Zone, error)
	FindByID(ctx context.Context, id int) (*domain.Zone, error)
	FindByName(ctx context.Context, name string) (*domain.Zone, error)
	List(ctx context.Context, q domain.PageQuery) ([]domain.Zone, int, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	FindByUserAndPlate(ctx context.Context, userID int, plate string) (*domain.Vehicle, error)
	ListForUser(ctx context.Context, userID int, q domain.PageQuery) ([]domain.Vehicle, int, error)
	ListAllForUser(ctx context.Context, userID int) ([]domain.Vehicle, error)
}

type ParkingSessionRepository interface {
	Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSession, error)
	FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSession, error)
	FindActiveByVehicleID(ctx context.Context, vehicleID int) (*domain.ParkingSession, error)
	// Settle writes the derived billing fields and status of a stopped session.
	Settle(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	ListForUser(ctx context.Context, userID int, q domain.PageQuery) ([]domain.ParkingSession, int, error)
}

// Store is the persistence handle injected into services. Repositories
// obtained from the Store passed to WithinTx's callback share one
// transaction; it commits when fn returns nil and rolls back otherwise.
type Store interface {
	Users() UserRepository
	Zones() ZoneRepository
	Vehicles() VehicleRepository
	Sessions() ParkingSessionRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
