package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"parkilite/internal/api"
	"parkilite/internal/api/handler"
	"parkilite/internal/api/middleware"
	"parkilite/internal/cache"
	"parkilite/internal/config"
	"parkilite/internal/logger"
	"parkilite/internal/metrics"
	"parkilite/internal/repository/postgresql"
	"parkilite/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parkilite: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database and schema
	db, err := postgresql.NewDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	log.Info("database connected", zap.String("driver", cfg.DBDriver))

	if err := postgresql.RunMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations applied")

	store := postgresql.NewStore(db)

	// 3. Zone cache; Redis is optional
	var zoneCache service.ZoneCache = cache.NopZoneCache{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, zone cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			zoneCache = cache.NewRedisZoneCache(client, cfg.ZoneCacheTTL, log)
			log.Info("zone cache enabled", zap.String("redis_addr", cfg.RedisAddr))
		}
	}

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	// 5. Event feed
	var wg sync.WaitGroup
	wsManager := handler.NewWebSocketManager(log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		wsManager.Run(ctx)
	}()

	// 6. Services
	userService := service.NewUserService(store, log)
	zoneService := service.NewZoneService(store, zoneCache, log)
	vehicleService := service.NewVehicleService(store, log)
	sessionService := service.NewSessionService(store, service.NewSessionEngine(time.Now), recorder, wsManager, log)

	if cfg.SeedDemo {
		if err := service.SeedDemoData(ctx, store, log); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	// 7. HTTP
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimitRPS),
		Burst: cfg.RateLimitBurst,
	}, log)
	defer rateLimiter.Stop()

	router := api.SetupRouter(api.Deps{
		Users:       userService,
		Zones:       zoneService,
		Vehicles:    vehicleService,
		Sessions:    sessionService,
		DB:          db,
		WSManager:   wsManager,
		RateLimiter: rateLimiter,
		Metrics:     recorder,
		MetricsHTTP: metrics.Handler(registry),
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	wg.Wait()
	log.Info("server stopped")
	return nil
}
