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

type UserService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

func (s *UserService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	username := strings.TrimSpace(dto.Username)
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if username == "" || email == "" {
		return nil, ErrMissingFields
	}

	balance := domain.DefaultSignupBalance
	if dto.Balance != nil {
		if dto.Balance.IsNegative() {
			return nil, apperr.Validation("invalid_balance", "balance must not be negative")
		}
		if dto.Balance.Cmp(domain.MaxRateOrBalance) > 0 {
			return nil, apperr.Validation("invalid_balance", "balance must not exceed "+domain.MaxRateOrBalance.String())
		}
		balance = *dto.Balance
	}

	user, err := s.store.Users().Create(ctx, &domain.User{
		Username: username,
		Email:    email,
		Balance:  balance,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists.WithErr(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Vehicles = []domain.Vehicle{}
	s.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Get returns the user together with its vehicles.
func (s *UserService) Get(ctx context.Context, id int) (*domain.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "find user")
	}
	vehicles, err := s.store.Vehicles().ListAllForUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	user.Vehicles = vehicles
	return user, nil
}
