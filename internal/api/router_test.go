package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"parkilite/internal/api/middleware"
	"parkilite/internal/apperr"
	"parkilite/internal/domain"
	"parkilite/internal/metrics"
)

type notFoundServices struct{}

var errNope = apperr.NotFound("nope", "not here")

func (notFoundServices) Register(context.Context, domain.RegisterUserDTO) (*domain.User, error) {
	return nil, errNope
}
func (notFoundServices) Get(context.Context, int) (*domain.User, error) { return nil, errNope }

type zonesStub struct{}

func (zonesStub) Create(context.Context, domain.ZoneDTO) (*domain.Zone, error) { return nil, errNope }
func (zonesStub) Get(context.Context, int) (*domain.Zone, error)               { return nil, errNope }
func (zonesStub) List(_ context.Context, q domain.PageQuery) (domain.Page[domain.Zone], error) {
	q, _ = q.Normalize(domain.ZoneSortKeys, domain.DefaultZoneSort)
	return domain.NewPage([]domain.Zone{{ID: 1, Name: "A"}}, q, 1), nil
}

type vehiclesStub struct{}

func (vehiclesStub) Register(context.Context, domain.RegisterVehicleDTO) (*domain.Vehicle, error) {
	return nil, errNope
}
func (vehiclesStub) List(context.Context, int, domain.PageQuery) (domain.Page[domain.Vehicle], error) {
	return domain.Page[domain.Vehicle]{}, errNope
}

type sessionsStub struct{}

func (sessionsStub) Start(context.Context, domain.StartSessionDTO) (*domain.ParkingSession, error) {
	return nil, errNope
}
func (sessionsStub) Stop(context.Context, domain.StopSessionDTO) (*domain.ParkingSession, error) {
	return nil, errNope
}
func (sessionsStub) Get(context.Context, int) (*domain.ParkingSession, error) { return nil, errNope }
func (sessionsStub) ListForUser(context.Context, int, domain.PageQuery) (domain.Page[domain.ParkingSession], error) {
	return domain.Page[domain.ParkingSession]{}, errNope
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	return SetupRouter(Deps{
		Users:       notFoundServices{},
		Zones:       zonesStub{},
		Vehicles:    vehiclesStub{},
		Sessions:    sessionsStub{},
		DB:          okPinger{},
		RateLimiter: limiter,
		Metrics:     metrics.NewCollector(reg),
		MetricsHTTP: metrics.Handler(reg),
		Logger:      zap.NewNop(),
	})
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/zones", http.StatusOK},
		{http.MethodGet, "/zones/1", http.StatusNotFound},
		{http.MethodGet, "/users/1", http.StatusNotFound},
		{http.MethodGet, "/users/1/sessions", http.StatusNotFound},
		{http.MethodGet, "/sessions/1", http.StatusNotFound},
		{http.MethodGet, "/vehicles?user_id=1", http.StatusNotFound},
		{http.MethodPost, "/sessions/start", http.StatusNotFound},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
		{http.MethodOptions, "/sessions/start", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
		if w.Header().Get(middleware.RequestIDHeader) == "" {
			t.Errorf("%s %s: missing request id header", tt.method, tt.path)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "parkilite_http_requests_total") {
		t.Errorf("metrics status = %d, body lacks http counter", w.Code)
	}
}

func TestRouter_RateLimitSkipsHealth(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: rate.Limit(0.01), Burst: 1, CleanupInterval: time.Hour}, zap.NewNop())
	defer limiter.Stop()
	r := newTestRouter(t, limiter)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zones", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz throttled: %d", w.Code)
	}
}
