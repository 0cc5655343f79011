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

type pgZoneRepository struct {
	db querier
}

func (r *pgZoneRepository) Create(ctx context.Context, zone *domain.Zone) (*domain.Zone, error) {
	query := `INSERT INTO zones (name, rate_per_min, max_minutes) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, zone.Name, zone.RatePerMin, zone.MaxMinutes).Scan(&zone.ID, &zone.CreatedAt)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: zone name '%s' already exists", repository.ErrDuplicateEntry, zone.Name)
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("ZoneRepository.Create: constraint rejected zone '%s': %w", zone.Name, err)
		}
		return nil, fmt.Errorf("ZoneRepository.Create: %w", err)
	}
	zone.CreatedAt = zone.CreatedAt.In(time.UTC)
	return zone, nil
}

func (r *pgZoneRepository) FindByID(ctx context.Context, id int) (*domain.Zone, error) {
	return r.findOne(ctx, "FindByID", `SELECT id, name, rate_per_min, max_minutes, created_at FROM zones WHERE id = $1`, id)
}

func (r *pgZoneRepository) FindByName(ctx context.Context, name string) (*domain.Zone, error) {
	return r.findOne(ctx, "FindByName", `SELECT id, name, rate_per_min, max_minutes, created_at FROM zones WHERE name = $1`, name)
}

func (r *pgZoneRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*domain.Zone, error) {
	zone := &domain.Zone{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&zone.ID, &zone.Name, &zone.RatePerMin, &zone.MaxMinutes, &zone.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ZoneRepository.%s: %w", op, err)
	}
	zone.CreatedAt = zone.CreatedAt.In(time.UTC)
	return zone, nil
}

func (r *pgZoneRepository) List(ctx context.Context, q domain.PageQuery) ([]domain.Zone, int, error) {
	q, order := q.Normalize(domain.ZoneSortKeys, domain.DefaultZoneSort)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zones`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ZoneRepository.List (count): %w", err)
	}

	// order comes from domain.ZoneSortKeys, never from the request.
	query := `SELECT id, name, rate_per_min, max_minutes, created_at FROM zones ORDER BY ` + order + ` LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, q.PerPage, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("ZoneRepository.List: %w", err)
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var zone domain.Zone
		if err := rows.Scan(&zone.ID, &zone.Name, &zone.RatePerMin, &zone.MaxMinutes, &zone.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ZoneRepository.List (scanning row): %w", err)
		}
		zone.CreatedAt = zone.CreatedAt.In(time.UTC)
		zones = append(zones, zone)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ZoneRepository.List (rows error): %w", err)
	}
	return zones, total, nil
}
