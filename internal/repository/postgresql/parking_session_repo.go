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

type pgParkingSessionRepository struct {
	db querier
}

const sessionColumns = `id, user_id, vehicle_id, zone_id, started_at, ended_at, minutes, cost, cost_total, status`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner, session *domain.ParkingSession) error {
	if err := row.Scan(
		&session.ID, &session.UserID, &session.VehicleID, &session.ZoneID,
		&session.StartedAt, &session.EndedAt, &session.Minutes,
		&session.Cost, &session.CostTotal, &session.Status,
	); err != nil {
		return err
	}
	session.StartedAt = session.StartedAt.In(time.UTC)
	if session.EndedAt.Valid {
		session.EndedAt.Time = session.EndedAt.Time.In(time.UTC)
	}
	return nil
}

func (r *pgParkingSessionRepository) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `INSERT INTO parking_sessions (user_id, vehicle_id, zone_id, started_at, status)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		session.UserID, session.VehicleID, session.ZoneID, session.StartedAt, session.Status,
	).Scan(&session.ID)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok && constraint == constraintActiveSession {
			return nil, fmt.Errorf("ParkingSessionRepository.Create: %w", repository.ErrActiveSessionExists)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("ParkingSessionRepository.Create: %w: referenced user, vehicle or zone", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Create: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	return r.findOne(ctx, "FindByID", `SELECT `+sessionColumns+` FROM parking_sessions WHERE id = $1`, id)
}

func (r *pgParkingSessionRepository) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSession, error) {
	return r.findOne(ctx, "FindByIDForUpdate", `SELECT `+sessionColumns+` FROM parking_sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *pgParkingSessionRepository) FindActiveByVehicleID(ctx context.Context, vehicleID int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE vehicle_id = $1 AND status = $2 AND ended_at IS NULL
	           ORDER BY started_at DESC LIMIT 1`
	session := &domain.ParkingSession{}
	err := scanSession(r.db.QueryRowContext(ctx, query, vehicleID, domain.SessionActive), session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindActiveByVehicleID: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) findOne(ctx context.Context, op, query string, id int) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	if err := scanSession(r.db.QueryRowContext(ctx, query, id), session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.%s: %w", op, err)
	}
	return session, nil
}

// Settle only touches rows still active, so a concurrent settlement that
// slipped past the row lock surfaces as ErrNotFound instead of a double write.
func (r *pgParkingSessionRepository) Settle(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `UPDATE parking_sessions
	           SET ended_at = $1, minutes = $2, cost = $3, cost_total = $4, status = $5
	           WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query,
		session.EndedAt, session.Minutes, session.Cost, session.CostTotal, session.Status,
		session.ID, domain.SessionActive,
	)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Settle: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Settle (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return session, nil
}

func (r *pgParkingSessionRepository) ListForUser(ctx context.Context, userID int, q domain.PageQuery) ([]domain.ParkingSession, int, error) {
	q, order := q.Normalize(domain.SessionSortKeys, domain.DefaultSessionSort)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_sessions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ParkingSessionRepository.ListForUser (count): %w", err)
	}

	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE user_id = $1
	           ORDER BY ` + order + `
	           LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, q.PerPage, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("ParkingSessionRepository.ListForUser: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ParkingSession
	for rows.Next() {
		var session domain.ParkingSession
		if err := scanSession(rows, &session); err != nil {
			return nil, 0, fmt.Errorf("ParkingSessionRepository.ListForUser (scanning row): %w", err)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ParkingSessionRepository.ListForUser (rows error): %w", err)
	}
	return sessions, total, nil
}
