package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkilite/internal/api/handler"
	"parkilite/internal/api/middleware"
	"parkilite/internal/metrics"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Users       handler.UserService
	Zones       handler.ZoneService
	Vehicles    handler.VehicleService
	Sessions    SessionService
	DB          handler.Pinger
	WSManager   *handler.WebSocketManager
	RateLimiter *middleware.RateLimiter
	Metrics     metrics.Recorder
	MetricsHTTP http.Handler
	Logger      *zap.Logger
}

// SessionService is the session surface used by both the session and user
// routes.
type SessionService interface {
	handler.SessionService
	handler.UserSessionLister
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logging(d.Logger, d.Metrics))

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/healthz", handler.NewHealthHandler(d.DB, d.Logger).Check)
	if d.MetricsHTTP != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHTTP))
	}
	if d.WSManager != nil {
		wsHandler := handler.NewWebSocketHandler(d.WSManager, d.Logger)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}

	api := r.Group("")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware())
	}

	userH := handler.NewUserHandler(d.Users, d.Sessions, d.Logger)
	userRoutes := api.Group("/users")
	{
		userRoutes.POST("", userH.Register)
		userRoutes.GET("/:id", userH.Get)
		userRoutes.GET("/:id/sessions", userH.ListSessions)
	}

	zoneH := handler.NewZoneHandler(d.Zones, d.Logger)
	zoneRoutes := api.Group("/zones")
	{
		zoneRoutes.POST("", zoneH.Create)
		zoneRoutes.GET("", zoneH.List)
		zoneRoutes.GET("/:id", zoneH.Get)
	}

	vehicleH := handler.NewVehicleHandler(d.Vehicles, d.Logger)
	vehicleRoutes := api.Group("/vehicles")
	{
		vehicleRoutes.POST("", vehicleH.Register)
		vehicleRoutes.GET("", vehicleH.List)
	}

	sessionH := handler.NewParkingSessionHandler(d.Sessions, d.Logger)
	sessionRoutes := api.Group("/sessions")
	{
		sessionRoutes.POST("/start", sessionH.Start)
		sessionRoutes.POST("/stop", sessionH.Stop)
		sessionRoutes.GET("/:id", sessionH.Get)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found", "kind": "not_found"})
	})
	return r
}
