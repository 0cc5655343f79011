package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkilite/internal/apperr"
	"parkilite/internal/domain"
)

type VehicleService interface {
	Register(ctx context.Context, dto domain.RegisterVehicleDTO) (*domain.Vehicle, error)
	List(ctx context.Context, userID int, q domain.PageQuery) (domain.Page[domain.Vehicle], error)
}

type VehicleHandler struct {
	vehicles VehicleService
	logger   *zap.Logger
}

func NewVehicleHandler(vehicles VehicleService, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, logger: logger}
}

// POST /vehicles
func (h *VehicleHandler) Register(c *gin.Context) {
	var dto domain.RegisterVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	vehicle, err := h.vehicles.Register(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, vehicle)
}

// GET /vehicles?user_id=
func (h *VehicleHandler) List(c *gin.Context) {
	userID := 0
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.logger, apperr.Validation("invalid_user_id", "user_id must be an integer"))
			return
		}
		userID = id
	}
	q, err := bindPageQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := h.vehicles.List(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, page)
}
