package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"parkilite/internal/domain"
	"parkilite/internal/repository"
)

type demoZone struct {
	name       string
	rate       string
	maxMinutes int
}

var demoZones = []demoZone{
	{name: "A", rate: "1.50", maxMinutes: 120},
	{name: "B", rate: "1.00", maxMinutes: 180},
}

const (
	demoUsername = "demo"
	demoEmail    = "demo@iberopuebla.mx"
)

// SeedDemoData makes sure the demo user and zones A and B exist. Running it
// again changes nothing.
func SeedDemoData(ctx context.Context, store repository.Store, logger *zap.Logger) error {
	return store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().FindByEmail(ctx, demoEmail); errors.Is(err, repository.ErrNotFound) {
			user, err := tx.Users().Create(ctx, &domain.User{
				Username: demoUsername,
				Email:    demoEmail,
				Balance:  domain.DefaultSignupBalance,
			})
			if err != nil {
				return fmt.Errorf("seed demo user: %w", err)
			}
			logger.Info("seeded demo user", zap.Int("user_id", user.ID))
		} else if err != nil {
			return fmt.Errorf("seed demo user: %w", err)
		}

		for _, z := range demoZones {
			_, err := tx.Zones().FindByName(ctx, z.name)
			if err == nil {
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("seed zone %s: %w", z.name, err)
			}
			zone, err := tx.Zones().Create(ctx, &domain.Zone{
				Name:       z.name,
				RatePerMin: domain.MustMoney(z.rate),
				MaxMinutes: z.maxMinutes,
			})
			if err != nil {
				return fmt.Errorf("seed zone %s: %w", z.name, err)
			}
			logger.Info("seeded zone", zap.Int("zone_id", zone.ID), zap.String("name", zone.Name))
		}
		return nil
	})
}
