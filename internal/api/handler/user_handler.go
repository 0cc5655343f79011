package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkilite/internal/domain"
)

type UserService interface {
	Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error)
	Get(ctx context.Context, id int) (*domain.User, error)
}

type UserSessionLister interface {
	ListForUser(ctx context.Context, userID int, q domain.PageQuery) (domain.Page[domain.ParkingSession], error)
}

type UserHandler struct {
	users    UserService
	sessions UserSessionLister
	logger   *zap.Logger
}

func NewUserHandler(users UserService, sessions UserSessionLister, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, logger: logger}
}

// POST /users
func (h *UserHandler) Register(c *gin.Context) {
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	user, err := h.users.Register(c.Request.Context(), dto)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, user)
}

// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// GET /users/:id/sessions
func (h *UserHandler) ListSessions(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	q, err := bindPageQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := h.sessions.ListForUser(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondPage(c, page)
}
