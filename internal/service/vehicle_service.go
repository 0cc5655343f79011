package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"parkilite/internal/apperr"
	"parkilite/internal/domain"
	"parkilite/internal/repository"
)

type VehicleService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewVehicleService(store repository.Store, logger *zap.Logger) *VehicleService {
	return &VehicleService{store: store, logger: logger}
}

// Register adds a vehicle to a user. Plates are unique across all users: a
// plate already registered to anyone, including the same user, is refused.
func (s *VehicleService) Register(ctx context.Context, dto domain.RegisterVehicleDTO) (*domain.Vehicle, error) {
	plate := strings.TrimSpace(dto.Plate)
	if plate == "" || dto.UserID <= 0 {
		return nil, ErrMissingFields
	}
	if len(plate) > domain.MaxPlateLength {
		return nil, apperr.Validation("invalid_plate", fmt.Sprintf("plate must be at most %d characters", domain.MaxPlateLength))
	}

	var vehicle *domain.Vehicle
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().FindByID(ctx, dto.UserID); err != nil {
			return notFoundAs(err, ErrUserNotFound, "find user")
		}
		if _, err := tx.Vehicles().FindByPlate(ctx, plate); err == nil {
			return ErrPlateTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("find vehicle: %w", err)
		}
		created, err := tx.Vehicles().Create(ctx, &domain.Vehicle{Plate: plate, UserID: dto.UserID})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateEntry) {
				return ErrPlateTaken.WithErr(err)
			}
			return fmt.Errorf("create vehicle: %w", err)
		}
		vehicle = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("vehicle registered",
		zap.Int("vehicle_id", vehicle.ID), zap.Int("user_id", vehicle.UserID), zap.String("plate", vehicle.Plate))
	return vehicle, nil
}

func (s *VehicleService) List(ctx context.Context, userID int, q domain.PageQuery) (domain.Page[domain.Vehicle], error) {
	if userID <= 0 {
		return domain.Page[domain.Vehicle]{}, apperr.Validation("missing_user_id", "user_id is required to list vehicles")
	}
	q, _ = q.Normalize(domain.VehicleSortKeys, domain.DefaultVehicleSort)
	vehicles, total, err := s.store.Vehicles().ListForUser(ctx, userID, q)
	if err != nil {
		return domain.Page[domain.Vehicle]{}, fmt.Errorf("list vehicles: %w", err)
	}
	return domain.NewPage(vehicles, q, total), nil
}
