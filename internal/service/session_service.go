package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parkilite/internal/apperr"
	"parkilite/internal/domain"
	"parkilite/internal/metrics"
	"parkilite/internal/repository"
)

// SessionEventPublisher receives a notification after each committed start
// or stop. Implementations must not block.
type SessionEventPublisher interface {
	PublishSessionEvent(event domain.SessionEventNotification)
}

type nopPublisher struct{}

func (nopPublisher) PublishSessionEvent(domain.SessionEventNotification) {}

// SessionService resolves the entities a start or stop refers to and hands
// the lifecycle decision to the SessionEngine.
type SessionService struct {
	store   repository.Store
	engine  *SessionEngine
	metrics metrics.Recorder
	events  SessionEventPublisher
	logger  *zap.Logger
}

func NewSessionService(
	store repository.Store,
	engine *SessionEngine,
	recorder metrics.Recorder,
	events SessionEventPublisher,
	logger *zap.Logger,
) *SessionService {
	if events == nil {
		events = nopPublisher{}
	}
	return &SessionService{
		store:   store,
		engine:  engine,
		metrics: recorder,
		events:  events,
		logger:  logger,
	}
}

func (s *SessionService) Start(ctx context.Context, dto domain.StartSessionDTO) (*domain.ParkingSession, error) {
	plate := strings.TrimSpace(dto.Plate)
	if dto.UserID <= 0 || plate == "" || dto.ZoneID <= 0 {
		return nil, s.reject("start", ErrMissingFields)
	}

	var (
		session *domain.ParkingSession
		zone    *domain.Zone
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, dto.UserID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound, "find user")
		}
		vehicle, err := tx.Vehicles().FindByUserAndPlate(ctx, user.ID, plate)
		if err != nil {
			return notFoundAs(err, ErrVehicleNotFound, "find vehicle")
		}
		zone, err = tx.Zones().FindByID(ctx, dto.ZoneID)
		if err != nil {
			return notFoundAs(err, ErrZoneNotFound, "find zone")
		}
		session, err = s.engine.StartSession(ctx, tx, user, vehicle, zone)
		return err
	})
	if err != nil {
		return nil, s.reject("start", err)
	}

	s.metrics.RecordSessionStarted(zone.Name)
	s.logger.Info("parking session started",
		zap.Int("session_id", session.ID),
		zap.Int("user_id", session.UserID),
		zap.Int("vehicle_id", session.VehicleID),
		zap.String("plate", plate),
		zap.String("zone", zone.Name),
	)
	s.events.PublishSessionEvent(domain.SessionEventNotification{
		EventID:   uuid.NewString(),
		EventType: domain.SessionEventStarted,
		Timestamp: session.StartedAt,
		Plate:     plate,
		ZoneName:  zone.Name,
		Session:   *session,
	})
	return session, nil
}

func (s *SessionService) Stop(ctx context.Context, dto domain.StopSessionDTO) (*domain.ParkingSession, error) {
	if dto.UserID <= 0 || dto.SessionID <= 0 {
		return nil, s.reject("stop", ErrMissingFields)
	}

	var (
		session    *domain.ParkingSession
		zone       *domain.Zone
		vehicle    *domain.Vehicle
		settlement Settlement
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		session, err = tx.Sessions().FindByIDForUpdate(ctx, dto.SessionID)
		if err != nil {
			return notFoundAs(err, ErrSessionNotFound, "find session")
		}
		if session.Status != domain.SessionActive {
			return ErrSessionNotActive
		}
		user, err := tx.Users().FindByIDForUpdate(ctx, dto.UserID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound, "find user")
		}
		zone, err = tx.Zones().FindByID(ctx, session.ZoneID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrZoneMissing.WithErr(err)
			}
			return fmt.Errorf("find zone: %w", err)
		}
		vehicle, err = tx.Vehicles().FindByID(ctx, session.VehicleID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("find vehicle: %w", err)
		}
		session, settlement, err = s.engine.StopSession(ctx, tx, session, user, zone)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindIntegrity {
			s.logger.Error("parking session data integrity fault",
				zap.Int("session_id", dto.SessionID), zap.Error(err))
		}
		return nil, s.reject("stop", err)
	}

	charged := 0.0
	if settlement.Debited {
		charged = settlement.Total.Decimal().InexactFloat64()
	}
	s.metrics.RecordSessionSettled(zone.Name, string(settlement.Status), settlement.Minutes, charged)
	s.logger.Info("parking session settled",
		zap.Int("session_id", session.ID),
		zap.Int("user_id", dto.UserID),
		zap.String("zone", zone.Name),
		zap.Int64("minutes", settlement.Minutes),
		zap.String("cost", settlement.Cost.String()),
		zap.String("cost_total", settlement.Total.String()),
		zap.Bool("fined", settlement.Fined),
		zap.Bool("debited", settlement.Debited),
		zap.String("status", string(settlement.Status)),
	)

	plate := ""
	if vehicle != nil {
		plate = vehicle.Plate
	}
	s.events.PublishSessionEvent(domain.SessionEventNotification{
		EventID:   uuid.NewString(),
		EventType: domain.SessionEventSettled,
		Timestamp: settlement.EndedAt,
		Plate:     plate,
		ZoneName:  zone.Name,
		Session:   *session,
		Message:   settlementMessage(settlement),
	})
	return session, nil
}

func settlementMessage(s Settlement) string {
	switch s.Status {
	case domain.SessionPending:
		return fmt.Sprintf("balance too low for %s; amount left pending", s.Total)
	case domain.SessionFined:
		return fmt.Sprintf("charged %s including %s overstay fine", s.Total, OverstayFine)
	default:
		return fmt.Sprintf("charged %s", s.Total)
	}
}

func (s *SessionService) Get(ctx context.Context, id int) (*domain.ParkingSession, error) {
	session, err := s.store.Sessions().FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound, "find session")
	}
	return session, nil
}

// ListForUser returns the user's sessions, newest first unless q.Sort says
// otherwise.
func (s *SessionService) ListForUser(ctx context.Context, userID int, q domain.PageQuery) (domain.Page[domain.ParkingSession], error) {
	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		return domain.Page[domain.ParkingSession]{}, notFoundAs(err, ErrUserNotFound, "find user")
	}
	q, _ = q.Normalize(domain.SessionSortKeys, domain.DefaultSessionSort)
	sessions, total, err := s.store.Sessions().ListForUser(ctx, userID, q)
	if err != nil {
		return domain.Page[domain.ParkingSession]{}, fmt.Errorf("list sessions: %w", err)
	}
	return domain.NewPage(sessions, q, total), nil
}

// reject records the error code of a refused start/stop and passes err on.
func (s *SessionService) reject(op string, err error) error {
	reason := "internal"
	if e, ok := apperr.As(err); ok {
		reason = e.Code
	} else {
		s.logger.Error("parking session operation failed", zap.String("op", op), zap.Error(err))
	}
	s.metrics.RecordSessionRejected(reason)
	return err
}

// notFoundAs maps repository.ErrNotFound to target and wraps anything else.
func notFoundAs(err error, target *apperr.Error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target.WithErr(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
