package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkilite/internal/domain"
)

type SessionService interface {
	Start(ctx context.Context, dto domain.StartSessionDTO) (*domain.ParkingSession, error)
	Stop(ctx context.Context, dto domain.StopSessionDTO) (*domain.ParkingSession, error)
	Get(ctx context.Context, id int) (*domain.ParkingSession, error)
}

type ParkingSessionHandler struct {
	sessions SessionService
	logger   *zap.Logger
}

func NewParkingSessionHandler(sessions SessionService, logger *zap.Logger) *ParkingSessionHandler {
	return &ParkingSessionHandler{sessions: sessions, logger: logger}
}

// POST /sessions/start
func (h *ParkingSessionHandler) Start(c *gin.Context) {
	var dto domain.StartSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	session, err := h.sessions.Start(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, session)
}

// POST /sessions/stop
func (h *ParkingSessionHandler) Stop(c *gin.Context) {
	var dto domain.StopSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	session, err := h.sessions.Stop(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, session)
}

// GET /sessions/:id
func (h *ParkingSessionHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, session)
}
