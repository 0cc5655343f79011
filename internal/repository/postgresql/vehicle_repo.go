package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkilite/internal/domain"
	"parkilite/internal/repository"
)

type pgVehicleRepository struct {
	db querier
}

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (plate, user_id, created_at) VALUES ($1, $2, CURRENT_TIMESTAMP) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, vehicle.Plate, vehicle.UserID).Scan(&vehicle.ID, &vehicle.CreatedAt)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: plate '%s' is already registered", repository.ErrDuplicateEntry, vehicle.Plate)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: user %d", repository.ErrNotFound, vehicle.UserID)
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	return r.findOne(ctx, "FindByID", `SELECT id, plate, user_id, created_at FROM vehicles WHERE id = $1`, id)
}

func (r *pgVehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	return r.findOne(ctx, "FindByPlate", `SELECT id, plate, user_id, created_at FROM vehicles WHERE plate = $1`, plate)
}

func (r *pgVehicleRepository) FindByUserAndPlate(ctx context.Context, userID int, plate string) (*domain.Vehicle, error) {
	return r.findOne(ctx, "FindByUserAndPlate",
		`SELECT id, plate, user_id, created_at FROM vehicles WHERE user_id = $1 AND plate = $2`, userID, plate)
}

func (r *pgVehicleRepository) findOne(ctx context.Context, op, query string, args ...interface{}) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&vehicle.ID, &vehicle.Plate, &vehicle.UserID, &vehicle.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.%s: %w", op, err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) ListForUser(ctx context.Context, userID int, q domain.PageQuery) ([]domain.Vehicle, int, error) {
	q, order := q.Normalize(domain.VehicleSortKeys, domain.DefaultVehicleSort)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("VehicleRepository.ListForUser (count): %w", err)
	}

	query := `SELECT id, plate, user_id, created_at FROM vehicles WHERE user_id = $1 ORDER BY ` + order + ` LIMIT $2 OFFSET $3`
	vehicles, err := r.list(ctx, query, userID, q.PerPage, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("VehicleRepository.ListForUser: %w", err)
	}
	return vehicles, total, nil
}

func (r *pgVehicleRepository) ListAllForUser(ctx context.Context, userID int) ([]domain.Vehicle, error) {
	vehicles, err := r.list(ctx, `SELECT id, plate, user_id, created_at FROM vehicles WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.ListAllForUser: %w", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(&vehicle.ID, &vehicle.Plate, &vehicle.UserID, &vehicle.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
		vehicles = append(vehicles, vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return vehicles, nil
}
