package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkilite/internal/domain"
	"parkilite/internal/repository"
)

type Clock func() time.Time

// SessionEngine owns the parking-session state machine:
//
//	(none) --start--> active --stop--> inactive | fined | pending
//
// Both operations run inside store.WithinTx, joining the caller's transaction
// when there is one.
type SessionEngine struct {
	now Clock
}

func NewSessionEngine(now Clock) *SessionEngine {
	if now == nil {
		now = time.Now
	}
	return &SessionEngine{now: now}
}

// timestamp is UTC at microsecond precision, the resolution Postgres stores,
// so the in-memory record matches what is persisted.
func (e *SessionEngine) timestamp() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// StartSession opens an active session for vehicle in zone. The active-session
// check and the insert share one transaction, and the partial unique index on
// parking_sessions catches a concurrent start that passed the check.
func (e *SessionEngine) StartSession(ctx context.Context, store repository.Store, user *domain.User, vehicle *domain.Vehicle, zone *domain.Zone) (*domain.ParkingSession, error) {
	var created *domain.ParkingSession
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		_, err := tx.Sessions().FindActiveByVehicleID(ctx, vehicle.ID)
		switch {
		case err == nil:
			return ErrActiveSessionConflict
		case !errors.Is(err, repository.ErrNoActiveSession):
			return fmt.Errorf("check active session: %w", err)
		}

		session := &domain.ParkingSession{
			UserID:    user.ID,
			VehicleID: vehicle.ID,
			ZoneID:    zone.ID,
			StartedAt: e.timestamp(),
			Status:    domain.SessionActive,
		}
		created, err = tx.Sessions().Create(ctx, session)
		if err != nil {
			if errors.Is(err, repository.ErrActiveSessionExists) {
				return ErrActiveSessionConflict.WithErr(err)
			}
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// StopSession settles an active session and debits user when the balance
// covers the total. The session row and the balance are written in the same
// transaction; session and user are only mutated once both writes succeed.
func (e *SessionEngine) StopSession(ctx context.Context, store repository.Store, session *domain.ParkingSession, user *domain.User, zone *domain.Zone) (*domain.ParkingSession, Settlement, error) {
	settlement, err := Settle(session, user, zone, e.timestamp())
	if err != nil {
		return nil, Settlement{}, err
	}

	settled := *session
	debited := *user
	settlement.Apply(&settled, &debited)

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Sessions().Settle(ctx, &settled); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSessionNotActive.WithErr(err)
			}
			return fmt.Errorf("settle session: %w", err)
		}
		if !settlement.Debited {
			return nil
		}
		if err := tx.Users().UpdateBalance(ctx, user.ID, debited.Balance); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound.WithErr(err)
			}
			return fmt.Errorf("debit balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, Settlement{}, err
	}

	*session = settled
	*user = debited
	return session, settlement, nil
}
