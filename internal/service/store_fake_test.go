package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"parkilite/internal/domain"
	"parkilite/internal/repository"
)

type memData struct {
	nextID   int
	users    map[int]domain.User
	zones    map[int]domain.Zone
	vehicles map[int]domain.Vehicle
	sessions map[int]domain.ParkingSession
}

func (d *memData) clone() *memData {
	cp := &memData{
		nextID:   d.nextID,
		users:    make(map[int]domain.User, len(d.users)),
		zones:    make(map[int]domain.Zone, len(d.zones)),
		vehicles: make(map[int]domain.Vehicle, len(d.vehicles)),
		sessions: make(map[int]domain.ParkingSession, len(d.sessions)),
	}
	for k, v := range d.users {
		cp.users[k] = v
	}
	for k, v := range d.zones {
		cp.zones[k] = v
	}
	for k, v := range d.vehicles {
		cp.vehicles[k] = v
	}
	for k, v := range d.sessions {
		cp.sessions[k] = v
	}
	return cp
}

func (d *memData) id() int {
	d.nextID++
	return d.nextID
}

// faults lets a test make a single repository call fail.
type faults struct {
	updateBalance error
	settle        error
}

// memStore is an in-memory repository.Store. Transactions are serialized by
// one mutex and roll back by restoring a snapshot.
type memStore struct {
	mu     *sync.Mutex
	data   **memData
	faults *faults
	inTx   bool
}

func newMemStore() *memStore {
	d := &memData{
		users:    map[int]domain.User{},
		zones:    map[int]domain.Zone{},
		vehicles: map[int]domain.Vehicle{},
		sessions: map[int]domain.ParkingSession{},
	}
	return &memStore{mu: &sync.Mutex{}, data: &d, faults: &faults{}}
}

func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) d() *memData { return *s.data }

func (s *memStore) Users() repository.UserRepository              { return memUsers{s} }
func (s *memStore) Zones() repository.ZoneRepository              { return memZones{s} }
func (s *memStore) Vehicles() repository.VehicleRepository        { return memVehicles{s} }
func (s *memStore) Sessions() repository.ParkingSessionRepository { return memSessions{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d().clone()
	tx := &memStore{mu: s.mu, data: s.data, faults: s.faults, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

var memEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	defer r.s.lock()()
	d := r.s.d()
	for _, existing := range d.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, repository.ErrDuplicateEntry
		}
	}
	cp := *u
	cp.ID = d.id()
	cp.CreatedAt = memEpoch
	d.users[cp.ID] = cp
	return &cp, nil
}

func (r memUsers) FindByID(_ context.Context, id int) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByIDForUpdate(ctx context.Context, id int) (*domain.User, error) {
	return r.FindByID(ctx, id)
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.d().users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) UpdateBalance(_ context.Context, id int, balance domain.Money) error {
	defer r.s.lock()()
	if err := r.s.faults.updateBalance; err != nil {
		return err
	}
	d := r.s.d()
	u, ok := d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Balance = balance
	d.users[id] = u
	return nil
}

type memZones struct{ s *memStore }

func (r memZones) Create(_ context.Context, z *domain.Zone) (*domain.Zone, error) {
	defer r.s.lock()()
	d := r.s.d()
	for _, existing := range d.zones {
		if existing.Name == z.Name {
			return nil, repository.ErrDuplicateEntry
		}
	}
	cp := *z
	cp.ID = d.id()
	cp.CreatedAt = memEpoch
	d.zones[cp.ID] = cp
	return &cp, nil
}

func (r memZones) FindByID(_ context.Context, id int) (*domain.Zone, error) {
	defer r.s.lock()()
	z, ok := r.s.d().zones[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &z, nil
}

func (r memZones) FindByName(_ context.Context, name string) (*domain.Zone, error) {
	defer r.s.lock()()
	for _, z := range r.s.d().zones {
		if z.Name == name {
			return &z, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memZones) List(_ context.Context, q domain.PageQuery) ([]domain.Zone, int, error) {
	defer r.s.lock()()
	var zones []domain.Zone
	for _, z := range r.s.d().zones {
		zones = append(zones, z)
	}
	sortBy(zones, q.Sort, func(z domain.Zone) (string, int) { return strings.ToLower(z.Name), z.ID })
	return paginate(zones, q), len(zones), nil
}

type memVehicles struct{ s *memStore }

func (r memVehicles) Create(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	defer r.s.lock()()
	d := r.s.d()
	for _, existing := range d.vehicles {
		if existing.Plate == v.Plate {
			return nil, repository.ErrDuplicateEntry
		}
	}
	cp := *v
	cp.ID = d.id()
	cp.CreatedAt = memEpoch
	d.vehicles[cp.ID] = cp
	return &cp, nil
}

func (r memVehicles) FindByID(_ context.Context, id int) (*domain.Vehicle, error) {
	defer r.s.lock()()
	v, ok := r.s.d().vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r memVehicles) FindByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	defer r.s.lock()()
	for _, v := range r.s.d().vehicles {
		if v.Plate == plate {
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memVehicles) FindByUserAndPlate(_ context.Context, userID int, plate string) (*domain.Vehicle, error) {
	defer r.s.lock()()
	for _, v := range r.s.d().vehicles {
		if v.UserID == userID && v.Plate == plate {
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memVehicles) ListForUser(ctx context.Context, userID int, q domain.PageQuery) ([]domain.Vehicle, int, error) {
	all, _ := r.ListAllForUser(ctx, userID)
	sortBy(all, q.Sort, func(v domain.Vehicle) (string, int) { return strings.ToLower(v.Plate), v.ID })
	return paginate(all, q), len(all), nil
}

func (r memVehicles) ListAllForUser(_ context.Context, userID int) ([]domain.Vehicle, error) {
	defer r.s.lock()()
	var out []domain.Vehicle
	for _, v := range r.s.d().vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

type memSessions struct{ s *memStore }

func (r memSessions) Create(_ context.Context, ps *domain.ParkingSession) (*domain.ParkingSession, error) {
	defer r.s.lock()()
	d := r.s.d()
	for _, existing := range d.sessions {
		if existing.VehicleID == ps.VehicleID && existing.Status == domain.SessionActive {
			return nil, repository.ErrActiveSessionExists
		}
	}
	cp := *ps
	cp.ID = d.id()
	d.sessions[cp.ID] = cp
	return &cp, nil
}

func (r memSessions) FindByID(_ context.Context, id int) (*domain.ParkingSession, error) {
	defer r.s.lock()()
	ps, ok := r.s.d().sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ps, nil
}

func (r memSessions) FindByIDForUpdate(ctx context.Context, id int) (*domain.ParkingSession, error) {
	return r.FindByID(ctx, id)
}

func (r memSessions) FindActiveByVehicleID(_ context.Context, vehicleID int) (*domain.ParkingSession, error) {
	defer r.s.lock()()
	for _, ps := range r.s.d().sessions {
		if ps.VehicleID == vehicleID && ps.Status == domain.SessionActive {
			return &ps, nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r memSessions) Settle(_ context.Context, ps *domain.ParkingSession) (*domain.ParkingSession, error) {
	defer r.s.lock()()
	if err := r.s.faults.settle; err != nil {
		return nil, err
	}
	d := r.s.d()
	stored, ok := d.sessions[ps.ID]
	if !ok || stored.Status != domain.SessionActive {
		return nil, repository.ErrNotFound
	}
	stored.EndedAt = ps.EndedAt
	stored.Minutes = ps.Minutes
	stored.Cost = ps.Cost
	stored.CostTotal = ps.CostTotal
	stored.Status = ps.Status
	d.sessions[ps.ID] = stored
	return &stored, nil
}

func (r memSessions) ListForUser(_ context.Context, userID int, q domain.PageQuery) ([]domain.ParkingSession, int, error) {
	defer r.s.lock()()
	var out []domain.ParkingSession
	for _, ps := range r.s.d().sessions {
		if ps.UserID == userID {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case "started_at":
			if !a.StartedAt.Equal(b.StartedAt) {
				return a.StartedAt.Before(b.StartedAt)
			}
			return a.ID < b.ID
		case "id":
			return a.ID < b.ID
		case "-id":
			return a.ID > b.ID
		default:
			if !a.StartedAt.Equal(b.StartedAt) {
				return a.StartedAt.After(b.StartedAt)
			}
			return a.ID > b.ID
		}
	})
	return paginate(out, q), len(out), nil
}

// sortBy orders items by a text key or by id, descending when the sort key
// starts with "-".
func sortBy[T any](items []T, sortKey string, key func(T) (string, int)) {
	desc := strings.HasPrefix(sortKey, "-")
	byID := strings.TrimPrefix(sortKey, "-") == "id"
	sort.Slice(items, func(i, j int) bool {
		ti, ii := key(items[i])
		tj, ij := key(items[j])
		less := ii < ij
		if !byID && ti != tj {
			less = ti < tj
		}
		if desc {
			return !less
		}
		return less
	})
}

func paginate[T any](items []T, q domain.PageQuery) []T {
	start := q.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + q.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// stepClock is a manual clock for the session engine.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(start time.Time) *stepClock { return &stepClock{now: start} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedSettle struct {
	zone    string
	status  string
	minutes int64
	charged float64
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  []string
	settled  []recordedSettle
	rejected []string
}

func (r *fakeRecorder) RecordSessionStarted(zone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, zone)
}

func (r *fakeRecorder) RecordSessionSettled(zone, status string, minutes int64, charged float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled = append(r.settled, recordedSettle{zone, status, minutes, charged})
}

func (r *fakeRecorder) RecordSessionRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func (r *fakeRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.SessionEventNotification
}

func (p *fakePublisher) PublishSessionEvent(e domain.SessionEventNotification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// fixture is a store with one user (balance 300.00), one vehicle ABC123 and
// zone A (1.50/min, 120 max minutes).
type fixture struct {
	store    *memStore
	clock    *stepClock
	recorder *fakeRecorder
	events   *fakePublisher
	sessions *SessionService
	user     *domain.User
	vehicle  *domain.Vehicle
	zone     *domain.Zone
}

func newFixture(t interface{ Fatalf(string, ...any) }) *fixture {
	ctx := context.Background()
	store := newMemStore()
	user, err := store.Users().Create(ctx, &domain.User{Username: "ana", Email: "ana@example.com", Balance: domain.MustMoney("300.00")})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	vehicle, err := store.Vehicles().Create(ctx, &domain.Vehicle{Plate: "ABC123", UserID: user.ID})
	if err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	zone, err := store.Zones().Create(ctx, &domain.Zone{Name: "A", RatePerMin: domain.MustMoney("1.50"), MaxMinutes: 120})
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}

	clock := newStepClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	recorder := &fakeRecorder{}
	events := &fakePublisher{}
	svc := NewSessionService(store, NewSessionEngine(clock.Now), recorder, events, zap.NewNop())
	return &fixture{
		store:    store,
		clock:    clock,
		recorder: recorder,
		events:   events,
		sessions: svc,
		user:     user,
		vehicle:  vehicle,
		zone:     zone,
	}
}

func (f *fixture) balance(id int) domain.Money {
	return f.store.d().users[id].Balance
}

func (f *fixture) setBalance(id int, m domain.Money) {
	u := f.store.d().users[id]
	u.Balance = m
	f.store.d().users[id] = u
}
