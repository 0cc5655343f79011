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

// ZoneCache caches zones by id. Misses and failures are indistinguishable to
// callers.
type ZoneCache interface {
	Get(ctx context.Context, id int) (*domain.Zone, bool)
	Set(ctx context.Context, zone *domain.Zone)
}

type ZoneService struct {
	store  repository.Store
	cache  ZoneCache
	logger *zap.Logger
}

func NewZoneService(store repository.Store, cache ZoneCache, logger *zap.Logger) *ZoneService {
	return &ZoneService{store: store, cache: cache, logger: logger}
}

func validateZone(dto domain.ZoneDTO) error {
	if strings.TrimSpace(dto.Name) == "" || dto.RatePerMin == nil {
		return ErrMissingFields
	}
	if dto.RatePerMin.IsNegative() {
		return apperr.Validation("invalid_rate", "rate_per_min must be zero or greater")
	}
	if dto.RatePerMin.Cmp(domain.MaxRateOrBalance) > 0 {
		return apperr.Validation("invalid_rate", "rate_per_min must not exceed "+domain.MaxRateOrBalance.String())
	}
	if dto.MaxMinutes <= 0 {
		return apperr.Validation("invalid_max_minutes", "max_minutes must be greater than zero")
	}
	return nil
}

func (s *ZoneService) Create(ctx context.Context, dto domain.ZoneDTO) (*domain.Zone, error) {
	if err := validateZone(dto); err != nil {
		return nil, err
	}
	zone, err := s.store.Zones().Create(ctx, &domain.Zone{
		Name:       strings.TrimSpace(dto.Name),
		RatePerMin: *dto.RatePerMin,
		MaxMinutes: dto.MaxMinutes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrZoneExists.WithErr(err)
		}
		return nil, fmt.Errorf("create zone: %w", err)
	}
	s.cache.Set(ctx, zone)
	s.logger.Info("zone created",
		zap.Int("zone_id", zone.ID),
		zap.String("name", zone.Name),
		zap.String("rate_per_min", zone.RatePerMin.String()),
		zap.Int("max_minutes", zone.MaxMinutes),
	)
	return zone, nil
}

func (s *ZoneService) Get(ctx context.Context, id int) (*domain.Zone, error) {
	if zone, ok := s.cache.Get(ctx, id); ok {
		return zone, nil
	}
	zone, err := s.store.Zones().FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrZoneNotFound, "find zone")
	}
	s.cache.Set(ctx, zone)
	return zone, nil
}

func (s *ZoneService) List(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Zone], error) {
	q, _ = q.Normalize(domain.ZoneSortKeys, domain.DefaultZoneSort)
	zones, total, err := s.store.Zones().List(ctx, q)
	if err != nil {
		return domain.Page[domain.Zone]{}, fmt.Errorf("list zones: %w", err)
	}
	return domain.NewPage(zones, q, total), nil
}
