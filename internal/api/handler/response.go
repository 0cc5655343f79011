package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parkilite/internal/apperr"
	"parkilite/internal/domain"
	"parkilite/internal/service"
)

var errInvalidID = apperr.Validation("invalid_id", "id must be a positive integer")

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondPage[T any](c *gin.Context, page domain.Page[T]) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        page.Items,
		"page":        page.Page,
		"per_page":    page.PerPage,
		"total_items": page.TotalItems,
		"total_pages": page.TotalPages,
	})
}

// respondError writes the error envelope. Errors that did not come from
// apperr, and integrity faults, are logged and answered with a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindIntegrity {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal server error",
			"kind":    "internal",
		})
		return
	}
	c.JSON(statusFor(e.Kind), gin.H{
		"success": false,
		"error":   e.Message,
		"kind":    e.Kind,
		"code":    e.Code,
	})
}

// bindError turns a gin binding failure into a validation error. An empty
// body is treated like an empty object.
func bindError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, io.EOF) {
		return service.ErrMissingFields
	}
	return apperr.Validation("invalid_request", "invalid request: "+err.Error())
}

func paramID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func bindPageQuery(c *gin.Context) (domain.PageQuery, error) {
	var q domain.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, apperr.Validation("invalid_pagination", "page and per_page must be integers")
	}
	return q, nil
}
