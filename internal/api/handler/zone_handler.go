package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkilite/internal/domain"
)

type ZoneService interface {
	Create(ctx context.Context, dto domain.ZoneDTO) (*domain.Zone, error)
	Get(ctx context.Context, id int) (*domain.Zone, error)
	List(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Zone], error)
}

type ZoneHandler struct {
	zones  ZoneService
	logger *zap.Logger
}

func NewZoneHandler(zones ZoneService, logger *zap.Logger) *ZoneHandler {
	return &ZoneHandler{zones: zones, logger: logger}
}

// POST /zones
func (h *ZoneHandler) Create(c *gin.Context) {
	var dto domain.ZoneDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	zone, err := h.zones.Create(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, zone)
}

// GET /zones/:id
func (h *ZoneHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	zone, err := h.zones.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, zone)
}

// GET /zones
func (h *ZoneHandler) List(c *gin.Context) {
	q, err := bindPageQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := h.zones.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, page)
}
