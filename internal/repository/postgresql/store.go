package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"parkilite/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type pgStore struct {
	db *sql.DB
	q  querier
	tx bool
}

func NewStore(db *sql.DB) repository.Store {
	return &pgStore{db: db, q: db}
}

func (s *pgStore) Users() repository.UserRepository { return &pgUserRepository{db: s.q} }

func (s *pgStore) Zones() repository.ZoneRepository { return &pgZoneRepository{db: s.q} }

func (s *pgStore) Vehicles() repository.VehicleRepository { return &pgVehicleRepository{db: s.q} }

func (s *pgStore) Sessions() repository.ParkingSessionRepository {
	return &pgParkingSessionRepository{db: s.q}
}

// WithinTx runs fn in a read-committed transaction. Nested calls reuse the
// outer transaction.
func (s *pgStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.tx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit transaction: %w", cErr)
		}
	}()
	return fn(&pgStore{db: s.db, q: tx, tx: true})
}
