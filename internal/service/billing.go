package service

import (
	"time"

	"parkilite/internal/domain"
)

// OverstayFine is added to the cost when a session outlasts its zone's
// max_minutes.
var OverstayFine = domain.MustMoney("100.00")

// Settlement is the outcome of billing one session at stop time.
type Settlement struct {
	EndedAt      time.Time
	Minutes      int64
	Rate         domain.Money
	Cost         domain.Money
	Total        domain.Money
	Fined        bool
	Status       domain.SessionStatus
	Debited      bool
	BalanceAfter domain.Money
}

// BilledMinutes truncates the elapsed time to whole minutes. Anything under a
// minute bills as zero; a negative span (clock skew) also bills as zero.
func BilledMinutes(startedAt, endedAt time.Time) int64 {
	elapsed := endedAt.Sub(startedAt)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / time.Minute)
}

// Settle computes the stop-time billing for session without mutating
// anything. The fine is part of the total even when the balance is short, and
// a short balance always yields pending, whether or not the session was fined.
func Settle(session *domain.ParkingSession, user *domain.User, zone *domain.Zone, endedAt time.Time) (Settlement, error) {
	if session.Status != domain.SessionActive {
		return Settlement{}, ErrSessionNotActive
	}

	s := Settlement{
		EndedAt: endedAt,
		Minutes: BilledMinutes(session.StartedAt, endedAt),
		Rate:    zone.RatePerMin,
	}
	s.Cost = s.Rate.MulInt(s.Minutes)
	s.Total = s.Cost
	s.Status = domain.SessionInactive
	if s.Minutes > int64(zone.MaxMinutes) {
		s.Total = s.Cost.Add(OverstayFine)
		s.Fined = true
		s.Status = domain.SessionFined
	}

	s.BalanceAfter = user.Balance
	if user.Balance.LessThan(s.Total) {
		s.Status = domain.SessionPending
		return s, nil
	}
	s.BalanceAfter = user.Balance.Sub(s.Total)
	s.Debited = true
	return s, nil
}

// Apply copies a settlement onto the session and user records.
func (s Settlement) Apply(session *domain.ParkingSession, user *domain.User) {
	session.EndedAt.SetValid(s.EndedAt)
	session.Minutes.SetValid(s.Minutes)
	session.Cost = domain.NullMoneyFrom(s.Cost)
	session.CostTotal = domain.NullMoneyFrom(s.Total)
	session.Status = s.Status
	user.Balance = s.BalanceAfter
}
